// Package logs reads back the musicus log file for the `musicus logs`
// command: the last N lines, then optionally new lines as they are appended.
package logs
