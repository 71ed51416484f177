package slash

import "github.com/bwmarrin/discordgo"

// TypeTag names the domain type a handler declares for one parameter.
type TypeTag int

const (
	TypeUnknown TypeTag = iota
	TypeString
	TypeInt
	TypeBool
	TypeFloat
	TypeUser
	TypeMember
	TypeTextChannel
	TypeVoiceChannel
	TypeStageChannel
	TypeThread
	TypeDMChannel
	TypeCategoryChannel
	TypeStoreChannel
	TypeForumChannel
	TypeNewsChannel
	TypeRole
	TypeRoleOrMember
	TypeRoleOrUser
)

var typeTable = map[TypeTag]discordgo.ApplicationCommandOptionType{
	TypeString:          OptionString,
	TypeInt:             OptionInteger,
	TypeBool:            OptionBoolean,
	TypeUser:            OptionUser,
	TypeMember:          OptionUser,
	TypeTextChannel:     OptionChannel,
	TypeVoiceChannel:    OptionChannel,
	TypeStageChannel:    OptionChannel,
	TypeThread:          OptionChannel,
	TypeDMChannel:       OptionChannel,
	TypeCategoryChannel: OptionChannel,
	TypeStoreChannel:    OptionChannel,
	TypeForumChannel:    OptionChannel,
	TypeNewsChannel:     OptionChannel,
	TypeRole:            OptionRole,
	TypeRoleOrMember:    OptionMentionable,
	TypeRoleOrUser:      OptionMentionable,
	TypeFloat:           OptionNumber,
}

// WireType returns the option type the tag maps to. Unrecognized tags map to
// OptionString.
func (t TypeTag) WireType() discordgo.ApplicationCommandOptionType {
	if wt, ok := typeTable[t]; ok {
		return wt
	}
	return OptionString
}

// Range is a bounded numeric annotation.
type Range struct {
	Min   float64
	Max   float64
	Float bool
}

// UpTo is the range [0, max].
func UpTo(hi float64) *Range { return &Range{Max: hi} }

// Between is the range [min, max].
func Between(lo, hi float64) *Range { return &Range{Min: lo, Max: hi} }

// FloatBetween is the range [min, max] over floating point values.
func FloatBetween(lo, hi float64) *Range { return &Range{Min: lo, Max: hi, Float: true} }

// Param describes one parameter of a handler as declared by the caller.
type Param struct {
	Name     string
	Type     TypeTag
	Optional bool // the parameter has a default value
	Range    *Range
}

// OptionSpec is the per-parameter annotation. Zero fields are inferred from
// the matching Param.
type OptionSpec struct {
	Name         string
	Description  string
	Type         discordgo.ApplicationCommandOptionType
	Required     *bool
	Choices      []*Choice
	MinValue     *float64
	MaxValue     *float64
	ChannelTypes []discordgo.ChannelType
	Autocomplete AutocompleteHandler
}

// Infer builds the Option for spec from the handler parameters. It fails with
// ErrNoSuchParameter when spec names a parameter the handler does not have.
func Infer(params []Param, spec OptionSpec) (*Option, error) {
	var param *Param
	for i := range params {
		if params[i].Name == spec.Name {
			param = &params[i]
			break
		}
	}
	if param == nil {
		return nil, &DeclarationError{Option: spec.Name, Err: ErrNoSuchParameter}
	}

	opt := &Option{
		Name:         param.Name,
		Description:  spec.Description,
		Required:     !param.Optional,
		Choices:      spec.Choices,
		MinValue:     spec.MinValue,
		MaxValue:     spec.MaxValue,
		ChannelTypes: spec.ChannelTypes,
		Autocomplete: spec.Autocomplete,
	}
	if spec.Required != nil {
		opt.Required = *spec.Required
	}

	switch {
	case param.Range != nil:
		opt.Type = OptionInteger
		if param.Range.Float {
			opt.Type = OptionNumber
		}
		lo, hi := param.Range.Min, param.Range.Max
		opt.MinValue = &lo
		opt.MaxValue = &hi
	case spec.Type != 0:
		opt.Type = spec.Type
	default:
		opt.Type = param.Type.WireType()
	}
	return opt, nil
}

// inferAll infers every spec against params in order.
func inferAll(command string, params []Param, specs []OptionSpec) ([]*Option, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	opts := make([]*Option, 0, len(specs))
	for _, spec := range specs {
		opt, err := Infer(params, spec)
		if err != nil {
			if de, ok := err.(*DeclarationError); ok {
				de.Command = command
			}
			return nil, err
		}
		opts = append(opts, opt)
	}
	return opts, nil
}
