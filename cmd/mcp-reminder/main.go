// Command mcp-reminder provides an MCP server for reminder management.
//
// It edits the same reminder collection as todo-alarm. A running
// todo-alarm picks the changes up from storage; this server never rings.
//
// Usage:
//
//	./mcp-reminder          # Start MCP server (stdio)
//	./mcp-reminder --help   # Show help
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/notexe/todo-alarm/internal/config"
	"github.com/notexe/todo-alarm/internal/logger"
	"github.com/notexe/todo-alarm/internal/reminder"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--help", "-h":
			printHelp()
			return
		}
	}

	cfg, err := config.Load(os.Getenv("TODO_ALARM_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol
	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	kv, err := reminder.OpenKV(cfg.Storage.Backend, cfg.Storage.Dir, cfg.DBPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer kv.Close()

	list := reminder.NewList(reminder.NewStore(kv, cfg.Storage.Key, log.Named("mcp")))
	s := reminder.NewServer(list)

	if err := server.ServeStdio(s.MCPServer()); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`MCP Reminder Server - daily reminders via MCP protocol

USAGE:
    mcp-reminder          Start MCP server (communicates via stdio)
    mcp-reminder --help   Show this help

ENVIRONMENT:
    TODO_ALARM_CONFIG             Path to config.yaml (optional)
    TODO_ALARM_STORAGE__BACKEND   json (default), sqlite or memory
    TODO_ALARM_STORAGE__DIR       Data directory (default: ~/.todo-alarm)

TOOLS:
    add_reminder       Add a daily reminder (title, time HH:MM)
    list_reminders     List reminders (optional status filter)
    due_reminders      Pending reminders due at a time (default: now)
    toggle_reminder    Flip completed; unchecking re-arms the alarm
    complete_reminder  Mark a reminder as completed
    delete_reminder    Delete a reminder permanently
    update_reminder    Update title and/or time

CONFIGURATION:
    Add to your MCP client's mcp.json:
    {
      "mcpServers": {
        "reminder": {
          "command": "/path/to/mcp-reminder",
          "args": []
        }
      }
    }`)
}
