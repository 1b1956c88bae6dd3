package placeholders

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AnotherFullstackDev/deployctl/internal/lib"
)

func upperModifier(input string, args []string) (string, error) {
	return strings.ToUpper(input), nil
}

func lowerModifier(input string, args []string) (string, error) {
	return strings.ToLower(input), nil
}

func trimModifier(input string, args []string) (string, error) {
	if len(args) > 1 {
		return "", fmt.Errorf("%w - trim modifier expects at most one argument, got %d", lib.BadUserInputError, len(args))
	}
	if len(args) == 0 {
		return strings.TrimSpace(input), nil
	}
	return strings.Trim(input, args[0]), nil
}

func replaceModifier(input string, args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("%w - replace modifier expects exactly two arguments, got %d", lib.BadUserInputError, len(args))
	}
	return strings.Replace(input, args[0], args[1], 1), nil
}

func replaceAllModifier(input string, args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("%w - replace_all modifier expects exactly two arguments, got %d", lib.BadUserInputError, len(args))
	}
	return strings.ReplaceAll(input, args[0], args[1]), nil
}

func truncateModifier(input string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w - truncate modifier expects exactly one argument, got %d", lib.BadUserInputError, len(args))
	}
	length, err := strconv.Atoi(args[0])
	if err != nil || length < 0 {
		return "", fmt.Errorf("%w - truncate modifier expects a non-negative length, got '%s'", lib.BadUserInputError, args[0])
	}
	if len(input) <= length {
		return input, nil
	}
	return input[:length], nil
}
