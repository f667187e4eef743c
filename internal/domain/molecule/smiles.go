package molecule

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/turtacn/molscope/pkg/errors"
)

// validSMILESChars is a character-set screen only; real validation happens in
// the remote converter.
var validSMILESChars = regexp.MustCompile(`^[A-Za-z0-9@+\-\[\]()=#$/\\%.:*]+$`)

// ValidateSMILES performs the local sanity checks run before a SMILES string
// is sent to the structure converter.
func ValidateSMILES(smiles string) error {
	smiles = strings.TrimSpace(smiles)
	if smiles == "" {
		return errors.New(errors.ErrCodeMoleculeInvalidSMILES, "SMILES string cannot be empty")
	}
	if !validSMILESChars.MatchString(smiles) {
		return errors.New(errors.ErrCodeMoleculeInvalidSMILES, "SMILES contains invalid characters").
			WithDetail(fmt.Sprintf("smiles=%s", smiles))
	}
	return validateBrackets(smiles)
}

// validateBrackets checks that parentheses and square brackets are balanced.
func validateBrackets(smiles string) error {
	var stack []rune
	closers := map[rune]rune{
		')': '(',
		']': '[',
	}

	for _, ch := range smiles {
		switch ch {
		case '(', '[':
			stack = append(stack, ch)
		case ')', ']':
			if len(stack) == 0 || stack[len(stack)-1] != closers[ch] {
				return errors.New(errors.ErrCodeMoleculeInvalidSMILES, "unmatched brackets in SMILES").
					WithDetail(fmt.Sprintf("smiles=%s", smiles))
			}
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) != 0 {
		return errors.New(errors.ErrCodeMoleculeInvalidSMILES, "unclosed brackets in SMILES").
			WithDetail(fmt.Sprintf("smiles=%s", smiles))
	}
	return nil
}

//Personal.AI order the ending
