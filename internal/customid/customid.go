// Package customid defines the typed protocol encoded into Discord component
// and modal identifiers. Every control is a Kind plus an optional session key
// and argument; fields are percent-escaped so keys may contain any character
// without colliding with the delimiter.
package customid

import (
	"fmt"
	"strings"
)

// Kind discriminates every interactive control Pulse emits.
type Kind string

const (
	// Task creation wizard.
	WizardName         Kind = "wz.name"      // initial name modal
	WizardSpace        Kind = "wz.space"     // project select
	WizardList         Kind = "wz.list"      // list select
	WizardCategory     Kind = "wz.cat"       // category select
	WizardCategoryPage Kind = "wz.cat.page"  // category pagination, arg prev|next
	WizardCategoryBack Kind = "wz.cat.back"  // back to recap without a pick
	WizardParam        Kind = "wz.param"     // "add parameter" select on the recap
	WizardPriority     Kind = "wz.prio"      // priority select
	WizardRename       Kind = "wz.rename"    // rename modal
	WizardStartDate    Kind = "wz.date.sta"  // start date modal
	WizardDueDate      Kind = "wz.date.due"  // due date modal
	WizardBack         Kind = "wz.back"      // abandon a sub-view, back to recap
	WizardConfirm      Kind = "wz.confirm"
	WizardCancel       Kind = "wz.cancel"

	// Task list pager.
	ListPage   Kind = "ls.page"   // arg prev|next
	ListPick   Kind = "ls.pick"   // task select, value = absolute index
	ListStatus Kind = "ls.status" // arg = index|target
	ListBack   Kind = "ls.back"   // back from status view to the page
)

var known = map[Kind]bool{
	WizardName: true, WizardSpace: true, WizardList: true,
	WizardCategory: true, WizardCategoryPage: true, WizardCategoryBack: true,
	WizardParam: true, WizardPriority: true, WizardRename: true,
	WizardStartDate: true, WizardDueDate: true, WizardBack: true,
	WizardConfirm: true, WizardCancel: true,
	ListPage: true, ListPick: true, ListStatus: true, ListBack: true,
}

const sep = "|"

// ID is one decoded control identifier.
type ID struct {
	Kind Kind
	Key  string // draft or session key
	Arg  string
}

// Encode renders the identifier. Discord caps customIds at 100 characters;
// keys are short synthetic ids so the budget holds.
func Encode(kind Kind, key, arg string) string {
	return string(kind) + sep + escape(key) + sep + escape(arg)
}

// Parse decodes an identifier previously produced by Encode.
func Parse(raw string) (ID, error) {
	parts := strings.SplitN(raw, sep, 3)
	if len(parts) != 3 {
		return ID{}, fmt.Errorf("customid: malformed id %q", raw)
	}
	kind := Kind(parts[0])
	if !known[kind] {
		return ID{}, fmt.Errorf("customid: unknown kind %q", parts[0])
	}
	return ID{Kind: kind, Key: unescape(parts[1]), Arg: unescape(parts[2])}, nil
}

// EncodePair packs two values into one select-option value.
func EncodePair(a, b string) string {
	return escape(a) + sep + escape(b)
}

// DecodePair unpacks a value produced by EncodePair.
func DecodePair(raw string) (string, string, error) {
	parts := strings.SplitN(raw, sep, 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("customid: malformed pair %q", raw)
	}
	return unescape(parts[0]), unescape(parts[1]), nil
}

// escape protects the delimiter and the escape character themselves.
func escape(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	return strings.ReplaceAll(s, sep, "%7C")
}

func unescape(s string) string {
	s = strings.ReplaceAll(s, "%7C", sep)
	return strings.ReplaceAll(s, "%25", "%")
}
