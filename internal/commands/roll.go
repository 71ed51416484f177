package commands

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/slashroute/pkg/slash"
)

const (
	maxRollNumber = 1_000_000
	maxRollResult = 1_000_000_000
)

var (
	tokenRegex = regexp.MustCompile(`(?i)(\d*d\d+|\d+|[+\-*/])`)
	diceRegex  = regexp.MustCompile(`(?i)^(\d*)d(\d+)$`)
)

// Dice holds the dice commands.
type Dice struct {
	env Env
}

func (d *Dice) Name() string     { return "dice" }
func (d *Dice) Category() string { return "🎲 Gameplay" }

func declareDice(col *slash.Collector, env Env) error {
	roll, err := slash.NewChatCommand(slash.ChatSpec{
		Name:        "roll",
		Description: "Roll dice like `2d20+1d6-2`",
		GuildOnly:   true,
		Params:      []slash.Param{{Name: "formula", Type: slash.TypeString}},
		Options:     []slash.OptionSpec{{Name: "formula", Description: "Supports `2d6+1d4*2-3` and similar math"}},
		Handler:     runRoll,
	})
	if err != nil {
		return err
	}

	dice, err := slash.NewChatCommand(slash.ChatSpec{
		Name:        "dice",
		Description: "Roll a handful of identical dice",
		GuildOnly:   true,
		Params: []slash.Param{
			{Name: "sides", Range: slash.Between(2, 1000)},
			{Name: "count", Range: slash.Between(1, 100), Optional: true},
		},
		Options: []slash.OptionSpec{
			{Name: "sides", Description: "Sides per die"},
			{Name: "count", Description: "How many dice (default 1)"},
		},
		Handler: runDice,
	})
	if err != nil {
		return err
	}

	return col.AttachGroup(&Dice{env: env}, roll, dice)
}

func runRoll(_ context.Context, owner slash.Group, i *discordgo.Interaction, args slash.Args) error {
	d := owner.(*Dice)
	formula := strings.ReplaceAll(args.String("formula"), " ", "")

	total, pretty, err := evalFormula(formula, d.env.intN)
	if err != nil {
		return d.env.Replier.Reply(i, &discordgo.MessageEmbed{Description: err.Error()}, true)
	}
	return d.env.Replier.Reply(i, &discordgo.MessageEmbed{
		Title:       "🎲 Dice Roll",
		Description: fmt.Sprintf("**User Input**:\t`%s`\n**Calculation**:\t%s\n**Result**:\t**%d**", formula, pretty, total),
	}, false)
}

func runDice(_ context.Context, owner slash.Group, i *discordgo.Interaction, args slash.Args) error {
	d := owner.(*Dice)
	count := 1
	if args.Has("count") {
		count = int(args.Int("count"))
	}
	total, pretty, err := evalFormula(fmt.Sprintf("%dd%d", count, args.Int("sides")), d.env.intN)
	if err != nil {
		return d.env.Replier.Reply(i, &discordgo.MessageEmbed{Description: err.Error()}, true)
	}
	return d.env.Replier.Reply(i, &discordgo.MessageEmbed{
		Title:       "🎲 Dice Roll",
		Description: fmt.Sprintf("%s\n**Result**:\t**%d**", pretty, total),
	}, false)
}

type term struct {
	value int
	desc  string
	op    string
}

// evalFormula evaluates a dice formula. Multiplication and division bind
// tighter than addition and subtraction; division truncates.
func evalFormula(formula string, intN func(int) int) (int, string, error) {
	tokens := tokenRegex.FindAllString(formula, -1)
	if len(tokens) == 0 || strings.Join(tokens, "") != formula {
		return 0, "", errors.New("Can't parse your formula. Try something like `2d6+1d4*2-3`")
	}

	var terms []term
	op := "+"
	expectValue := true
	for _, tok := range tokens {
		if strings.ContainsAny(tok, "+-*/") && len(tok) == 1 {
			if expectValue {
				return 0, "", fmt.Errorf("Unexpected operator `%s`", tok)
			}
			op, expectValue = tok, true
			continue
		}
		val, desc, err := evalToken(tok, intN)
		if err != nil {
			return 0, "", fmt.Errorf("Failed to evaluate `%s`: %v", tok, err)
		}
		terms = append(terms, term{value: val, desc: desc, op: op})
		expectValue = false
	}
	if expectValue {
		return 0, "", errors.New("Formula ends with an operator")
	}

	var merged []term
	for _, t := range terms {
		if t.op != "*" && t.op != "/" {
			merged = append(merged, t)
			continue
		}
		prev := &merged[len(merged)-1]
		if t.op == "/" {
			if t.value == 0 {
				return 0, "", errors.New("Can't divide by zero.")
			}
			prev.value /= t.value
		} else {
			if t.value != 0 && abs(prev.value) > maxRollResult/abs(t.value) {
				return 0, "", errors.New("Result too big.")
			}
			prev.value *= t.value
		}
		prev.desc = fmt.Sprintf("%s %s %s", prev.desc, t.op, t.desc)
	}

	total := 0
	var sb strings.Builder
	for n, t := range merged {
		if n > 0 {
			fmt.Fprintf(&sb, " %s ", t.op)
		}
		sb.WriteString(t.desc)
		if t.op == "-" {
			total -= t.value
		} else {
			total += t.value
		}
		if abs(total) > maxRollResult {
			return 0, "", errors.New("Result too big.")
		}
	}
	return total, sb.String(), nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func evalToken(tok string, intN func(int) int) (int, string, error) {
	m := diceRegex.FindStringSubmatch(tok)
	if m == nil {
		n, err := strconv.Atoi(tok)
		if errors.Is(err, strconv.ErrRange) || n > maxRollNumber {
			return 0, "", fmt.Errorf("number too big. max %d", maxRollNumber)
		}
		if err != nil {
			return 0, "", errors.New("not a number or dice")
		}
		return n, fmt.Sprintf("`%d`", n), nil
	}

	count := 1
	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return 0, "", errors.New("invalid dice count")
		}
		count = n
	}
	sides, err := strconv.Atoi(m[2])
	if err != nil || sides < 2 {
		return 0, "", errors.New("invalid dice sides")
	}
	if count > 100 || sides > 1000 {
		return 0, "", errors.New("too big. max 100 dice, 1000 sides")
	}

	sum := 0
	rolls := make([]string, 0, count)
	for range count {
		r := intN(sides) + 1
		sum += r
		rolls = append(rolls, strconv.Itoa(r))
	}
	return sum, fmt.Sprintf("`%s` [%s]", tok, strings.Join(rolls, ", ")), nil
}
