package codegen

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xplshn/gruc/pkg/instr"
	"github.com/xplshn/gruc/pkg/tree"
)

// Disassemble writes one line per instruction of the image's code. Inline
// string data is shown as a .string directive and cells that do not decode
// as .word.
func Disassemble(w io.Writer, img *Image) error {
	mem := img.Memory
	for pc := codeStart; pc < len(mem); {
		if s, next, ok := inlineString(mem, pc); ok {
			if _, err := fmt.Fprintf(w, "%6d: .string %s\n", pc, strconv.Quote(s)); err != nil {
				return err
			}
			pc = next
			continue
		}

		in := instr.Instruction(mem[pc])
		if !in.IsValid() || pc+in.Operands() >= len(mem) {
			if _, err := fmt.Fprintf(w, "%6d: .word %d\n", pc, mem[pc]); err != nil {
				return err
			}
			pc++
			continue
		}
		var sb strings.Builder
		sb.WriteString(in.String())
		for i := 1; i <= in.Operands(); i++ {
			sb.WriteByte(' ')
			sb.WriteString(strconv.FormatInt(mem[pc+i], 10))
		}
		if _, err := fmt.Fprintf(w, "%6d: %s\n", pc, sb.String()); err != nil {
			return err
		}
		pc += 1 + in.Operands()
	}
	return nil
}

// inlineString recognizes the LI addr; B end; length; chars layout emitted
// for string literals.
func inlineString(mem []tree.Item, pc int) (string, int, bool) {
	if pc+4 >= len(mem) || instr.Instruction(mem[pc]) != instr.LI || instr.Instruction(mem[pc+2]) != instr.B {
		return "", 0, false
	}
	first, end := int(mem[pc+1]), int(mem[pc+3])
	length := int(mem[pc+4])
	if first != pc+5 || end != first+length || end > len(mem) {
		return "", 0, false
	}
	runes := make([]rune, length)
	for i := range runes {
		runes[i] = rune(mem[first+i])
	}
	return string(runes), end, true
}
