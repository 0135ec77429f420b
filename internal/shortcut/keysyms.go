package shortcut

import "fmt"

type keysymEntry struct {
	code   Key
	keysym string
	label  string
}

// keysymTable maps local key codes to X keysym names. Letters and digits are
// not listed: their keysym name is the character itself.
var keysymTable = func() []keysymEntry {
	table := []keysymEntry{
		{KeyEscape, "Escape", "Esc"},
		{KeyTab, "Tab", "Tab"},
		{KeyBacktab, "ISO_Left_Tab", "Backtab"},
		{KeyBackspace, "BackSpace", "Backspace"},
		{KeyReturn, "Return", "Return"},
		{KeyEnter, "KP_Enter", "Enter"},
		{KeyInsert, "Insert", "Ins"},
		{KeyDelete, "Delete", "Del"},
		{KeyPause, "Pause", "Pause"},
		{KeyPrint, "Print", "Print"},
		{KeySysReq, "Sys_Req", "SysReq"},
		{KeyClear, "Clear", "Clear"},
		{KeyHome, "Home", "Home"},
		{KeyEnd, "End", "End"},
		{KeyLeft, "Left", "Left"},
		{KeyUp, "Up", "Up"},
		{KeyRight, "Right", "Right"},
		{KeyDown, "Down", "Down"},
		{KeyPageUp, "Prior", "PgUp"},
		{KeyPageDown, "Next", "PgDown"},
		{KeyMenu, "Menu", "Menu"},
		{Key(' '), "space", "Space"},
		{Key('!'), "exclam", ""},
		{Key('"'), "quotedbl", ""},
		{Key('#'), "numbersign", ""},
		{Key('$'), "dollar", ""},
		{Key('%'), "percent", ""},
		{Key('&'), "ampersand", ""},
		{Key('\''), "apostrophe", ""},
		{Key('('), "parenleft", ""},
		{Key(')'), "parenright", ""},
		{Key('*'), "asterisk", ""},
		{Key('+'), "plus", ""},
		{Key(','), "comma", ""},
		{Key('-'), "minus", ""},
		{Key('.'), "period", ""},
		{Key('/'), "slash", ""},
		{Key(':'), "colon", ""},
		{Key(';'), "semicolon", ""},
		{Key('<'), "less", ""},
		{Key('='), "equal", ""},
		{Key('>'), "greater", ""},
		{Key('?'), "question", ""},
		{Key('@'), "at", ""},
		{Key('['), "bracketleft", ""},
		{Key('\\'), "backslash", ""},
		{Key(']'), "bracketright", ""},
		{Key('^'), "asciicircum", ""},
		{Key('_'), "underscore", ""},
		{Key('`'), "grave", ""},
		{Key('{'), "braceleft", ""},
		{Key('|'), "bar", ""},
		{Key('}'), "braceright", ""},
		{Key('~'), "asciitilde", ""},
	}
	for i := 0; i < 35; i++ {
		name := fmt.Sprintf("F%d", i+1)
		table = append(table, keysymEntry{KeyF1 + Key(i), name, name})
	}
	return table
}()

var (
	keysymByCode = map[Key]string{}
	codeByKeysym = map[string]Key{}
)

func init() {
	for _, entry := range keysymTable {
		keysymByCode[entry.code] = entry.keysym
		codeByKeysym[entry.keysym] = entry.code
	}
}
