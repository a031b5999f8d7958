package util

import "fmt"

// Code identifies a user-facing diagnostic.
type Code int

const (
	// Lexical
	ErrBadCharacter Code = iota + 1
	ErrUnterminatedComment
	ErrUnterminatedString
	ErrEmptyCharConst
	ErrUnterminatedChar
	ErrBadEscape
	ErrExponentDigits
	ErrBadDigit
	WarnIntOverflow

	// Syntax
	ErrExpected

	// Declarations
	ErrUndeclared
	ErrRedeclared
	ErrMainRedefined
	ErrNoMain
	ErrVoidVariable
	ErrBoundNotInteger
	ErrEmptyBoundNoInit
	ErrArrayMember
	ErrUnknownStruct
	ErrNotTypeName
	ErrPrototypeMismatch
	ErrFunctionNotDefined
	ErrNestedFunction

	// Expressions
	ErrSubscriptNotArray
	ErrIndexNotInteger
	ErrCallNotFunction
	ErrWrongArgCount
	ErrNotStruct
	ErrNotStructPointer
	ErrNoSuchMember
	ErrNotLvalue
	ErrIncDecNotLvalue
	ErrAddressNotLvalue
	ErrNotPointer
	ErrNotArithmetic
	ErrNotInteger
	ErrNotScalar
	ErrArrayAssignment
	ErrFloatToInt
	ErrTypeMismatch
	ErrIncompatibleCondOperands
	ErrWrongInit
	ErrWrongInitCount
	ErrEmptyInit
	ErrFunctionValue
	WarnFloatEquality
	WarnFoldOverflow
	WarnAssignInCond

	// Builtins
	ErrPrintfFormat
	ErrPrintfSpec
	ErrPrintfArgCount
	ErrPrintfArgType
	ErrPrintfTooManyArgs
	ErrPrintPointer
	ErrIdentArgExpected

	// Statements
	ErrConditionNotScalar
	ErrSwitchNotInteger
	ErrCaseNotInteger
	ErrCaseOutsideSwitch
	ErrBreakOutside
	ErrContinueOutside
	ErrLabelRedefined
	ErrLabelUndefined
	ErrReturnValueInVoid
	ErrReturnNoValue
)

type message struct{ ru, en string }

var messages = map[Code]message{
	ErrBadCharacter:        {"неизвестный символ %q", "unknown character %q"},
	ErrUnterminatedComment: {"комментарий не закрыт", "unterminated block comment"},
	ErrUnterminatedString:  {"строка не заканчивается символом \"", "missing terminating \" character"},
	ErrEmptyCharConst:      {"пустая символьная константа", "empty character constant"},
	ErrUnterminatedChar:    {"символьная константа не заканчивается символом '", "missing terminating ' character"},
	ErrBadEscape:           {"неизвестный служебный символ %q", "unknown escape sequence %q"},
	ErrExponentDigits:      {"должна быть цифра после e", "exponent has no digits"},
	ErrBadDigit:            {"недопустимая цифра %q в числе", "invalid digit %q in number"},
	WarnIntOverflow:        {"слишком большая целая константа, преобразована в ДЛИН", "integer constant is too large, converted to floating"},

	ErrExpected: {"ожидалось %s", "expected %s"},

	ErrUndeclared:         {"не описан идентификатор %s", "use of undeclared identifier %s"},
	ErrRedeclared:         {"повторное описание идентификатора %s", "redeclaration of %s"},
	ErrMainRedefined:      {"в программе может быть только 1 идентификатор ГЛАВНАЯ", "only one main function is allowed"},
	ErrNoMain:             {"в каждой программе должна быть ГЛАВНАЯ функция", "program has no main function"},
	ErrVoidVariable:       {"только функции могут иметь тип ПУСТО", "only functions may have type void"},
	ErrBoundNotInteger:    {"размер массива может иметь тип только ЦЕЛ или ЛИТЕРА", "array bound must have integer type"},
	ErrEmptyBoundNoInit:   {"в описании массива границы не указаны, а инициализации нет", "array bound is missing and there is no initializer"},
	ErrArrayMember:        {"поле структуры не может быть массивом", "structure members of array type are not supported"},
	ErrUnknownStruct:      {"не описана структура %s", "unknown structure %s"},
	ErrNotTypeName:        {"%s не является именем типа", "%s is not a type name"},
	ErrPrototypeMismatch:  {"описание функции %s не соответствует прототипу", "definition of %s does not match its prototype"},
	ErrFunctionNotDefined: {"функция %s описана, но не определена", "function %s is declared but never defined"},
	ErrNestedFunction:     {"функции нельзя определять внутри блока", "functions cannot be defined inside a block"},

	ErrSubscriptNotArray:        {"попытка вырезки элемента не из массива", "subscripted value is not an array"},
	ErrIndexNotInteger:          {"индекс элемента массива должен иметь тип ЦЕЛ", "array index must have integer type"},
	ErrCallNotFunction:          {"попытка вызова не функции", "called object is not a function"},
	ErrWrongArgCount:            {"неправильное количество фактических параметров: ожидалось %d, передано %d", "wrong number of arguments: expected %d, got %d"},
	ErrNotStruct:                {"операция . применяется не к структуре", "member reference base is not a structure"},
	ErrNotStructPointer:         {"операция -> применяется не к указателю на структуру", "member reference base is not a pointer to a structure"},
	ErrNoSuchMember:             {"нет такого поля %s", "no member named %s"},
	ErrNotLvalue:                {"в левой части присваивания стоит что-то, чему нельзя присваивать", "expression is not assignable"},
	ErrIncDecNotLvalue:          {"++ и -- применимы только к переменным и элементам массива", "operand of ++ or -- is not assignable"},
	ErrAddressNotLvalue:         {"операция получения адреса & применима только к переменным", "cannot take the address of an rvalue"},
	ErrNotPointer:               {"операция * применяется не к указателю", "indirection requires a pointer operand"},
	ErrNotArithmetic:            {"операнд должен иметь арифметический тип", "operand must have arithmetic type"},
	ErrNotInteger:               {"операнд должен иметь тип ЦЕЛ или ЛИТЕРА", "operand must have integer type"},
	ErrNotScalar:                {"операнд должен иметь скалярный тип", "operand must have scalar type"},
	ErrArrayAssignment:          {"присваивание в массив запрещено", "array assignment forbidden"},
	ErrFloatToInt:               {"нельзя присваивать целому вещественное значение", "cannot assign a floating value to an integer"},
	ErrTypeMismatch:             {"несоответствие типов: ожидался %s, получен %s", "type mismatch: expected %s, got %s"},
	ErrIncompatibleCondOperands: {"несовместимые типы операндов условной операции", "incompatible operand types in conditional expression"},
	ErrWrongInit:                {"переменные такого типа нельзя инициализировать списком", "initializer list used for a non-aggregate type"},
	ErrWrongInitCount:           {"неправильное количество элементов инициализации: ожидалось %d, передано %d", "wrong number of initializers: expected %d, got %d"},
	ErrEmptyInit:                {"пустая инициализация", "empty initializer list"},
	ErrFunctionValue:            {"функцию можно только вызывать", "a function can only be called"},
	WarnFloatEquality:           {"сравнение вещественных чисел на равенство", "comparing floating values with == or != is unreliable"},
	WarnFoldOverflow:            {"переполнение при вычислении константного выражения", "integer overflow in constant expression"},
	WarnAssignInCond:            {"результат присваивания используется как условие", "result of an assignment used as a condition"},

	ErrPrintfFormat:      {"первый параметр ПЕЧАТЬФ должен быть строковой константой", "the format of printf must be a string literal"},
	ErrPrintfSpec:        {"неизвестная спецификация %%%c в формате", "unknown conversion specifier %%%c"},
	ErrPrintfArgCount:    {"неправильное количество параметров ПЕЧАТЬФ: ожидалось %d, передано %d", "wrong number of printf arguments: expected %d, got %d"},
	ErrPrintfArgType:     {"тип параметра не соответствует спецификации %%%c", "argument does not match conversion %%%c"},
	ErrPrintfTooManyArgs: {"слишком много параметров ПЕЧАТЬФ", "too many printf arguments"},
	ErrPrintPointer:      {"указатели нельзя печатать", "pointers cannot be printed"},
	ErrIdentArgExpected:  {"параметром должен быть идентификатор", "argument must be an identifier"},

	ErrConditionNotScalar: {"условие должно иметь тип ЦЕЛ или ЛИТЕРА", "condition must have scalar type"},
	ErrSwitchNotInteger:   {"значение в операторе ВЫБОР должно иметь тип ЦЕЛ", "switch value must have integer type"},
	ErrCaseNotInteger:     {"значение в СЛУЧАЙ должно иметь тип ЦЕЛ", "case value must have integer type"},
	ErrCaseOutsideSwitch:  {"СЛУЧАЙ или УМОЛЧАНИЕ вне оператора ВЫБОР", "case or default label outside of a switch"},
	ErrBreakOutside:       {"оператор ВЫХОД не в цикле и не в операторе ВЫБОР", "break statement not within a loop or switch"},
	ErrContinueOutside:    {"оператор ПРОДОЛЖИТЬ не в цикле", "continue statement not within a loop"},
	ErrLabelRedefined:     {"повторное описание метки %s", "redefinition of label %s"},
	ErrLabelUndefined:     {"метка %s не описана", "use of undeclared label %s"},
	ErrReturnValueInVoid:  {"в функции типа ПУСТО не должно быть выражения в ВОЗВРАТ", "void function should not return a value"},
	ErrReturnNoValue:      {"в функции не типа ПУСТО ВОЗВРАТ должен иметь выражение", "non-void function should return a value"},
}

// Diagnostic is the closed set of diagnostic payloads. Each kind carries
// exactly the values its message needs.
type Diagnostic interface {
	Code() Code
	args() []any
}

// Plain is a diagnostic without a payload.
type Plain struct{ C Code }

// Name carries an identifier, member or label spelling.
type Name struct {
	C    Code
	Name string
}

// Count carries an expected and an actual count.
type Count struct {
	C        Code
	Expected int
	Got      int
}

// Char carries a single offending character.
type Char struct {
	C    Code
	Char rune
}

// Mismatch carries two type spellings.
type Mismatch struct {
	Expected string
	Got      string
}

// Expected reports a missing token or construct.
type Expected struct{ What string }

func (d Plain) Code() Code    { return d.C }
func (d Name) Code() Code     { return d.C }
func (d Count) Code() Code    { return d.C }
func (d Char) Code() Code     { return d.C }
func (d Mismatch) Code() Code { return ErrTypeMismatch }
func (d Expected) Code() Code { return ErrExpected }

func (d Plain) args() []any    { return nil }
func (d Name) args() []any     { return []any{d.Name} }
func (d Count) args() []any    { return []any{d.Expected, d.Got} }
func (d Char) args() []any     { return []any{d.Char} }
func (d Mismatch) args() []any { return []any{d.Expected, d.Got} }
func (d Expected) args() []any { return []any{d.What} }

// Message renders a diagnostic in the given language ("ru" or "en").
func Message(d Diagnostic, lang string) string {
	m, ok := messages[d.Code()]
	if !ok {
		return fmt.Sprintf("diagnostic %d", d.Code())
	}
	format := m.ru
	if lang == "en" {
		format = m.en
	}
	if args := d.args(); len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}
