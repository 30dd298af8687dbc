// Copyright (c) 2025 Ember Clinic Systems
// SPDX-License-Identifier: AGPL-3.0-or-later

// store_cmd.go - Encrypted key-value storage commands.
//
// Command: store [subcommand]
//
// Subcommands:
//   put <key> <value>   Save a value (JSON or plain string)
//   get <key>           Read a value
//   list (default)      List stored keys
//   rm <key>            Remove a value
//
// Examples:
//   burnsafe store put progress '{"module":"triage","percent":40}'
//   burnsafe store get progress
//   burnsafe store list
//   burnsafe store rm progress
//
// Values are encrypted at rest once a PIN is configured. A value that cannot
// be decrypted (PIN was changed, data copied from another device) reads back
// as absent, not as an error.
package cli

import (
	"encoding/json"
	"fmt"
	"strings"
)

// HandleStore handles the "store" command.
func HandleStore(args Args) error {
	parser := NewArgParser(args.Raw)

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	switch parser.Subcommand() {
	case "", "list", "ls":
		return handleStoreList(app, args)
	case "put", "set":
		return handleStorePut(app, args, parser)
	case "get":
		return handleStoreGet(app, args, parser)
	case "rm", "delete", "del":
		return handleStoreRemove(app, args, parser)
	default:
		return fmt.Errorf("unknown store subcommand: %s\n\nUsage:\n"+
			"  burnsafe store put <key> <value>   Save a value\n"+
			"  burnsafe store get <key>           Read a value\n"+
			"  burnsafe store list                List stored keys\n"+
			"  burnsafe store rm <key>            Remove a value", parser.Subcommand())
	}
}

func handleStoreList(app *App, args Args) error {
	keys, err := app.Security.SavedKeys()
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("store list", map[string]any{"keys": keys}).Print()
	}

	if len(keys) == 0 {
		fmt.Println(DimStyle.Render("No stored values."))
		return nil
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}

func handleStorePut(app *App, args Args, parser *ArgParser) error {
	key := parser.Positional(1)
	if key == "" {
		return fmt.Errorf("usage: burnsafe store put <key> <value>")
	}
	raw := strings.Join(parser.PositionalFrom(2), " ")
	if raw == "" {
		return fmt.Errorf("usage: burnsafe store put <key> <value>")
	}

	// JSON values are stored structured; anything else is stored as a string.
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}

	if err := app.Security.Save(key, value); err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("store put", map[string]string{"key": key}).Print()
	}
	fmt.Println(SuccessStyle.Render("Saved " + key + "."))
	return nil
}

func handleStoreGet(app *App, args Args, parser *ArgParser) error {
	key := parser.Positional(1)
	if key == "" {
		return fmt.Errorf("usage: burnsafe store get <key>")
	}

	var value any
	found, err := app.Security.Load(key, &value)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("store get", map[string]any{
			"key":   key,
			"found": found,
			"value": value,
		}).Print()
	}

	if !found {
		fmt.Println(DimStyle.Render("(absent)"))
		return nil
	}
	rendered, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(rendered))
	return nil
}

func handleStoreRemove(app *App, args Args, parser *ArgParser) error {
	key := parser.Positional(1)
	if key == "" {
		return fmt.Errorf("usage: burnsafe store rm <key>")
	}
	if err := app.Security.Remove(key); err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("store rm", map[string]string{"key": key}).Print()
	}
	fmt.Println(SuccessStyle.Render("Removed " + key + "."))
	return nil
}
