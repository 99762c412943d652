/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Game errors surfaced to clients as ERROR messages. The message text is
// what the client displays, so it stays human-readable.
var (
	errRoomNotFound     = errors.New("Room not found")
	errInvalidRoomID    = errors.New("Invalid room ID format")
	errInvalidName      = errors.New("Invalid name format")
	errReconnectFailed  = errors.New("Room or player not found")
	errNoLocationFound  = errors.New("No usable location found")
	errMalformedMessage = errors.New("Invalid message format")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon())
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
