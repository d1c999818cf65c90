package usecase

import (
	"regexp"
	"strings"
)

// Compiled regex patterns for shopping list parsing
var (
	// Matches decimal commas ("1,5") so they survive list splitting
	decimalCommaPattern = regexp.MustCompile(`(\d),(\d)`)

	// Splits a free-form list into entries: newlines, commas and semicolons
	listSeparatorPattern = regexp.MustCompile(`[\r\n,;]+`)

	// Matches bullets and checkboxes at the start of an entry ("- ", "* ", "• ", "[ ] ", "1. ")
	bulletPattern = regexp.MustCompile(`^\s*(?:[-*•·]+|\[[ xX]?\]|\d+[.)])\s+`)

	// Matches leading quantities like "2x", "3 x", "2 ", "1,5 kg de"
	leadingQuantityPattern = regexp.MustCompile(`(?i)^\s*\d+(?:[.,]\d+)?\s*(?:x\s+|x$|(?:kg|g|gr|l|ml|ud|uds|unidades?)\s+(?:de\s+)?|\s+)`)

	// Matches trailing sizes like "1L", "500 g", "x6", "6 uds"
	trailingSizePattern = regexp.MustCompile(`(?i)\s+(?:x\s*\d+|\d+(?:[.,]\d+)?\s*(?:kg|g|gr|l|ml|cl|ud|uds|unidades?|pack)?)\s*$`)
)

// ParseShoppingList turns a free-form shopping list into item names.
// Bullets, quantities and sizes are stripped; blank entries are dropped; order is kept.
//
//	"- 2x Leche\n* pan 1kg, azúcar" -> ["Leche", "pan", "azúcar"]
func ParseShoppingList(text string) []string {
	items := make([]string, 0)
	text = decimalCommaPattern.ReplaceAllString(text, "$1.$2")
	for _, entry := range listSeparatorPattern.Split(text, -1) {
		item := cleanListEntry(entry)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// cleanListEntry strips list decoration from a single entry
func cleanListEntry(entry string) string {
	s := bulletPattern.ReplaceAllString(entry, "")
	s = leadingQuantityPattern.ReplaceAllString(s, "")
	s = trailingSizePattern.ReplaceAllString(s, "")
	s = multiSpacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// multiSpacePattern collapses runs of whitespace
var multiSpacePattern = regexp.MustCompile(`\s+`)
