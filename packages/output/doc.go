// Package output renders executed responses for the terminal.
package output
