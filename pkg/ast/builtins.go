package ast

import "github.com/xplshn/gruc/pkg/tree"

// Builtin identifies a library function known to the compiler.
type Builtin tree.Item

const (
	BuiltinPrintf Builtin = iota + 1
	BuiltinPrint
	BuiltinPrintid
	BuiltinGetid
	BuiltinAbs
	BuiltinSqrt
	BuiltinExp
	BuiltinSin
	BuiltinCos
	BuiltinLog
	BuiltinLog10
	BuiltinAsin
	BuiltinRand
	BuiltinRound
	BuiltinStrcpy
	BuiltinStrncpy
	BuiltinStrcat
	BuiltinStrncat
	BuiltinStrcmp
	BuiltinStrncmp
	BuiltinStrstr
	BuiltinStrlen
	BuiltinAssert
	BuiltinUpb
	builtinEnd
)

// BuiltinNames lists the English and Russian spellings of every builtin.
var BuiltinNames = map[Builtin][2]string{
	BuiltinPrintf:  {"printf", "печатьф"},
	BuiltinPrint:   {"print", "печать"},
	BuiltinPrintid: {"printid", "печатьид"},
	BuiltinGetid:   {"getid", "читатьид"},
	BuiltinAbs:     {"abs", "абс"},
	BuiltinSqrt:    {"sqrt", "квкор"},
	BuiltinExp:     {"exp", "эксп"},
	BuiltinSin:     {"sin", "син"},
	BuiltinCos:     {"cos", "кос"},
	BuiltinLog:     {"log", "лог"},
	BuiltinLog10:   {"log10", "лог10"},
	BuiltinAsin:    {"asin", "асин"},
	BuiltinRand:    {"rand", "случ"},
	BuiltinRound:   {"round", "округл"},
	BuiltinStrcpy:  {"strcpy", "копир_строку"},
	BuiltinStrncpy: {"strncpy", "копир_н_симв"},
	BuiltinStrcat:  {"strcat", "конкат_строки"},
	BuiltinStrncat: {"strncat", "конкат_н_симв"},
	BuiltinStrcmp:  {"strcmp", "сравн_строк"},
	BuiltinStrncmp: {"strncmp", "сравн_н_симв"},
	BuiltinStrstr:  {"strstr", "нач_подстрок"},
	BuiltinStrlen:  {"strlen", "длина"},
	BuiltinAssert:  {"assert", "проверить"},
	BuiltinUpb:     {"upb", "кол_во"},
}

// Builtins returns every builtin in declaration order.
func Builtins() []Builtin {
	out := make([]Builtin, 0, builtinEnd-1)
	for b := BuiltinPrintf; b < builtinEnd; b++ {
		out = append(out, b)
	}
	return out
}

func (b Builtin) String() string {
	if names, ok := BuiltinNames[b]; ok {
		return names[0]
	}
	return "builtin"
}
