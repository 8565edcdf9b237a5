package contact

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/dynsm/internal/dynamo"
)

// Command is a parsed contact line of an input deck:
//
//	contact primary_blocks <names...> secondary_blocks <names...> penalty_parameter <value>
type Command struct {
	PrimaryBlocks    []string
	SecondaryBlocks  []string
	PenaltyParameter float64
}

// ParseCommand parses a contact line. Keywords may come in any order after
// the leading "contact".
func ParseCommand(line string) (Command, error) {
	var cmd Command
	tokens := strings.Fields(line)
	if len(tokens) == 0 || tokens[0] != "contact" {
		return cmd, fmt.Errorf("%w: contact command must start with \"contact\"", dynamo.ErrInvalidConfig)
	}

	var list *[]string
	penaltySet := false
	for i := 1; i < len(tokens); i++ {
		switch tok := tokens[i]; tok {
		case "primary_blocks":
			list = &cmd.PrimaryBlocks
		case "secondary_blocks":
			list = &cmd.SecondaryBlocks
		case "penalty_parameter":
			list = nil
			if i+1 >= len(tokens) {
				return cmd, fmt.Errorf("%w: penalty_parameter needs a value", dynamo.ErrInvalidConfig)
			}
			v, err := strconv.ParseFloat(tokens[i+1], 64)
			if err != nil {
				return cmd, fmt.Errorf("%w: penalty_parameter %q: %v", dynamo.ErrInvalidConfig, tokens[i+1], err)
			}
			cmd.PenaltyParameter = v
			penaltySet = true
			i++
		default:
			if list == nil {
				return cmd, fmt.Errorf("%w: unexpected %q in contact command", dynamo.ErrInvalidConfig, tok)
			}
			*list = append(*list, tok)
		}
	}

	switch {
	case len(cmd.PrimaryBlocks) == 0:
		return cmd, fmt.Errorf("%w: contact command lists no primary blocks", dynamo.ErrInvalidConfig)
	case len(cmd.SecondaryBlocks) == 0:
		return cmd, fmt.Errorf("%w: contact command lists no secondary blocks", dynamo.ErrInvalidConfig)
	case !penaltySet || !(cmd.PenaltyParameter > 0):
		return cmd, fmt.Errorf("%w: contact command needs a positive penalty_parameter", dynamo.ErrInvalidConfig)
	}
	return cmd, nil
}
