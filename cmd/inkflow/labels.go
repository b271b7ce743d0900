package main

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"inkflow/internal/store"
)

var titleCaser = cases.Title(language.English)

// statusLabel renders a status enum value for table display.
func statusLabel(status store.Status) string {
	return titleCaser.String(strings.ReplaceAll(string(status), "_", " "))
}

func stageLabel(stage store.Stage) string {
	return titleCaser.String(strings.ReplaceAll(string(stage), "_", " "))
}

func optionalID(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}
