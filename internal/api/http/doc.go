// Package http implements the REST control API.
//
// Responses carry a "success" flag. Unknown sessions answer 404, rejected
// input 400, and failed adb commands or process spawns 502. Window
// commands whose window has not appeared yet succeed with applied=false.
package http
