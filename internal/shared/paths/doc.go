// Package paths locates per-user files.
//
// When no profile path is configured the daemon looks in the user config
// directory for the first of:
//
//	<config>/mirrordeck/
//	  ├── profile.yaml
//	  ├── profile.yml
//	  ├── profile.json
//	  └── profile.toml
package paths
