package command

import (
	"fmt"

	"pkt.systems/codebridge/schema"
)

// Op is an operation name of the engine command protocol.
type Op string

const (
	OpSetMimeType        Op = "SetMimeType"
	OpSetTheme           Op = "SetTheme"
	OpSetFontSize        Op = "SetFontSize"
	OpSetLineWrapping    Op = "SetLineWrapping"
	OpSetReadOnly        Op = "SetReadOnly"
	OpSetTabSize         Op = "SetTabSize"
	OpSetIndentUnit      Op = "SetIndentUnit"
	OpSetTabInsertSpaces Op = "SetTabInsertSpaces"
	OpToggleInvisible    Op = "ToggleInvisible"

	OpSetContent      Op = "SetContent"
	OpSetLeftContent  Op = "SetLeftContent"
	OpSetRightContent Op = "SetRightContent"
	OpSetOriginalCode Op = "SetOriginalCode"
	OpSetModifiedCode Op = "SetModifiedCode"

	OpGetContent         Op = "GetContent"
	OpGetLeftContent     Op = "GetLeftContent"
	OpGetRightContent    Op = "GetRightContent"
	OpGetOriginalCode    Op = "GetOriginalCode"
	OpGetModifiedCode    Op = "GetModifiedCode"
	OpGetMimeType        Op = "GetMimeType"
	OpGetTextSelection   Op = "GetTextSelection"
	OpSupportedMimeTypes Op = "SupportedMimeTypes"

	OpIsClean            Op = "IsClean"
	OpGetReadOnly        Op = "GetReadOnly"
	OpGetLineWrapping    Op = "GetLineWrapping"
	OpGetTabInsertSpaces Op = "GetTabInsertSpaces"

	OpGetTabSize    Op = "GetTabSize"
	OpGetIndentUnit Op = "GetIndentUnit"

	OpClearHistory    Op = "ClearHistory"
	OpRefreshDiffView Op = "RefreshDiffView"
)

// ResultKind is the value type an operation answers with.
type ResultKind int

const (
	ResultNone ResultKind = iota
	ResultString
	ResultBool
	ResultInt
	// ResultList is a list of strings; engines may also answer with a
	// comma separated string.
	ResultList
)

type opSpec struct {
	args   []ArgKind
	result ResultKind
}

var ops = map[Op]opSpec{
	OpSetMimeType:        {args: []ArgKind{ArgIdent}},
	OpSetTheme:           {args: []ArgKind{ArgIdent}},
	OpSetFontSize:        {args: []ArgKind{ArgInt}},
	OpSetLineWrapping:    {args: []ArgKind{ArgBool}},
	OpSetReadOnly:        {args: []ArgKind{ArgBool}},
	OpSetTabSize:         {args: []ArgKind{ArgInt}},
	OpSetIndentUnit:      {args: []ArgKind{ArgInt}},
	OpSetTabInsertSpaces: {args: []ArgKind{ArgBool}},
	OpToggleInvisible:    {args: []ArgKind{ArgBool}},

	OpSetContent:      {args: []ArgKind{ArgText}},
	OpSetLeftContent:  {args: []ArgKind{ArgText}},
	OpSetRightContent: {args: []ArgKind{ArgText}},
	OpSetOriginalCode: {args: []ArgKind{ArgText}},
	OpSetModifiedCode: {args: []ArgKind{ArgText}},

	OpGetContent:         {result: ResultString},
	OpGetLeftContent:     {result: ResultString},
	OpGetRightContent:    {result: ResultString},
	OpGetOriginalCode:    {result: ResultString},
	OpGetModifiedCode:    {result: ResultString},
	OpGetMimeType:        {result: ResultString},
	OpGetTextSelection:   {result: ResultString},
	OpSupportedMimeTypes: {result: ResultList},

	OpIsClean:            {result: ResultBool},
	OpGetReadOnly:        {result: ResultBool},
	OpGetLineWrapping:    {result: ResultBool},
	OpGetTabInsertSpaces: {result: ResultBool},

	OpGetTabSize:    {result: ResultInt},
	OpGetIndentUnit: {result: ResultInt},

	OpClearHistory:    {},
	OpRefreshDiffView: {},
}

// Known reports whether op is part of the protocol.
func (op Op) Known() bool {
	_, ok := ops[op]
	return ok
}

// Result returns the value type op answers with.
func (op Op) Result() ResultKind {
	return ops[op].result
}

var slotSetters = map[schema.Slot]Op{
	schema.SlotContent:  OpSetContent,
	schema.SlotLeft:     OpSetLeftContent,
	schema.SlotRight:    OpSetRightContent,
	schema.SlotOriginal: OpSetOriginalCode,
	schema.SlotModified: OpSetModifiedCode,
}

var slotGetters = map[schema.Slot]Op{
	schema.SlotContent:  OpGetContent,
	schema.SlotLeft:     OpGetLeftContent,
	schema.SlotRight:    OpGetRightContent,
	schema.SlotOriginal: OpGetOriginalCode,
	schema.SlotModified: OpGetModifiedCode,
}

var optionSetters = map[schema.Option]Op{
	schema.OptionMimeType:        OpSetMimeType,
	schema.OptionTheme:           OpSetTheme,
	schema.OptionFontSize:        OpSetFontSize,
	schema.OptionShowInvisibles:  OpToggleInvisible,
	schema.OptionLineWrapping:    OpSetLineWrapping,
	schema.OptionReadOnly:        OpSetReadOnly,
	schema.OptionTabSize:         OpSetTabSize,
	schema.OptionIndentUnit:      OpSetIndentUnit,
	schema.OptionTabInsertSpaces: OpSetTabInsertSpaces,
}

// SetContent builds the write command for slot.
func SetContent(slot schema.Slot, text string) (Command, error) {
	op, ok := slotSetters[slot]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", schema.ErrInvalidSlot, slot)
	}
	return New(op, Text(text))
}

// GetContent builds the read command for slot.
func GetContent(slot schema.Slot) (Command, error) {
	op, ok := slotGetters[slot]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", schema.ErrInvalidSlot, slot)
	}
	return New(op)
}

// SetOption builds the command that pushes an option value.
func SetOption(opt schema.Option, value any) (Command, error) {
	op, ok := optionSetters[opt]
	kind, known := opt.Kind()
	if !ok || !known {
		return Command{}, fmt.Errorf("%w: %q", schema.ErrInvalidOption, opt)
	}
	if err := schema.CheckOptionValue(opt, kind, value); err != nil {
		return Command{}, err
	}
	switch kind {
	case schema.KindIdent:
		return New(op, Ident(value.(string)))
	case schema.KindInt:
		return New(op, Int(value.(int)))
	default:
		return New(op, Bool(value.(bool)))
	}
}
