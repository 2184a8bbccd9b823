package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/hako/durafmt"

	"github.com/eug3n3js/ShiftBot/internal/model"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to ShiftBot!

You will get a message whenever a new shift matching your filters is
posted, with a button to mute shifts you are not interested in.

Quick start:
1. /sub — check your subscription status
2. /filters — view your allow and deny filters
3. /fadd allow location Praha — only get shifts in Praha

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64, admin bool) {
	text := `Subscription:
/sub — show subscription status

Filters (you have one allow and one deny filter):
/filters — show both filters
/fadd <allow|deny> <company|location|position> <value> — add a value
/frm <allow|deny> <company|location|position> <value> — remove a value
/flogic <allow|deny> <and|or> — combine conditions with AND or OR
/flonger <allow|deny> <hours|off> — only shifts longer than N hours
/fshorter <allow|deny> <hours|off> — only shifts shorter than N hours

Muting:
Use the 🔕 button under a notification to stop alerts for that shift.`

	if admin {
		text += `

Admin:
/activate <tg_id> <hours> — extend a user's access
/deactivate <tg_id> — cut a user's access now
/grant <tg_id> / /revoke <tg_id> — admin flag
/users — list all users
/broadcast <text> — message every registered user`
	}
	b.reply(chatID, text)
}

func (b *Bot) handleSub(chatID int64, user *model.User) {
	now := time.Now().UTC()
	if !user.HasActiveAccess(now) {
		b.reply(chatID, "Your subscription is inactive. Contact an admin to activate it.")
		return
	}
	left := durafmt.Parse(user.AccessEnds.Sub(now)).LimitFirstN(2)
	b.reply(chatID, fmt.Sprintf("Your subscription is active, %s left.", left))
}

func (b *Bot) handleFilters(ctx context.Context, chatID int64, user *model.User) {
	filters, err := b.store.GetUserFilters(ctx, user.ID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	text := "Your filters:\n"
	for _, f := range filters {
		text += "\n" + FormatFilter(f) + "\n"
	}
	text += "\nUse /fadd, /frm, /flogic, /flonger, /fshorter to edit them."
	b.reply(chatID, text)
}

func (b *Bot) handleFilterValue(ctx context.Context, chatID int64, user *model.User, args string, add bool) {
	parsed, err := ParseFilterValueArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	f, err := b.userFilter(ctx, user, parsed.Deny)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	if add {
		err = b.store.AddFilterValue(ctx, f.ID, parsed.List, parsed.Value)
	} else {
		err = b.store.RemoveFilterValue(ctx, f.ID, parsed.List, parsed.Value)
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	verb := "added to"
	if !add {
		verb = "removed from"
	}
	b.reply(chatID, fmt.Sprintf("%s %q %s the %s %s list.",
		sideLabel(parsed.Deny), parsed.Value, verb, sideName(parsed.Deny), parsed.List))
}

func (b *Bot) handleFilterLogic(ctx context.Context, chatID int64, user *model.User, args string) {
	deny, isAnd, err := ParseLogicArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	f, err := b.userFilter(ctx, user, deny)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if err := b.store.SetFilterLogic(ctx, f.ID, isAnd); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	logic := "OR"
	if isAnd {
		logic = "AND"
	}
	b.reply(chatID, fmt.Sprintf("%s filter now combines conditions with %s.", sideLabel(deny), logic))
}

func (b *Bot) handleFilterBound(ctx context.Context, chatID int64, user *model.User, args string, longer bool) {
	deny, bound, err := ParseBoundArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	f, err := b.userFilter(ctx, user, deny)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	if longer {
		err = b.store.SetFilterLonger(ctx, f.ID, bound)
	} else {
		err = b.store.SetFilterShorter(ctx, f.ID, bound)
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	kind := "longer-than"
	if !longer {
		kind = "shorter-than"
	}
	if bound == nil {
		b.reply(chatID, fmt.Sprintf("%s filter %s bound cleared.", sideLabel(deny), kind))
		return
	}
	b.reply(chatID, fmt.Sprintf("%s filter now requires shifts %s %s.",
		sideLabel(deny), kind, durafmt.Parse(*bound).LimitFirstN(2)))
}

// userFilter returns the user's allow or deny filter.
func (b *Bot) userFilter(ctx context.Context, user *model.User, deny bool) (*model.Filter, error) {
	filters, err := b.store.GetUserFilters(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	for i := range filters {
		if filters[i].IsBlackList == deny {
			return &filters[i], nil
		}
	}
	return nil, fmt.Errorf("filter not found")
}

func sideLabel(deny bool) string {
	if deny {
		return "Deny"
	}
	return "Allow"
}

func sideName(deny bool) string {
	if deny {
		return "deny"
	}
	return "allow"
}
