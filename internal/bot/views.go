package bot

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chore-tracker/internal/model"
	"chore-tracker/internal/recurrence"
	"chore-tracker/internal/repository"
	"chore-tracker/internal/service"
)

const (
	btnSkip           = "⏭️ Skip"
	btnConfirm        = "✅ Confirm"
	btnCancel         = "↩️ Cancel"
	btnCancelDialog   = "⏪ Stop"
	btnOnce           = "1️⃣ Once"
	btnDaily          = "📅 Daily"
	btnWeekly         = "🗓 Weekly"
	btnMonthly        = "📆 Monthly"
	btnCustom         = "⚙️ Custom"
	noCategory        = "Other"
	noCategoryKey     = "__no_category__"
	iconOneOff        = "📌"
	iconRecurring     = "♻️"
	menuLabelNewChore = "➕ New chore"
	menuLabelToday    = "📋 Today"
	menuLabelChores   = "🧹 Chores"
	menuLabelWeek     = "📊 Week"
	menuLabelReview   = "🔍 Review"
	menuLabelHelp     = "ℹ️ Help"
)

const helpText = "• /today — chores due today\n" +
	"• /chores — all chores, tap to mark one done\n" +
	"• /done &lt;id&gt; — mark a chore done\n" +
	"• /next &lt;id&gt; — upcoming dates of a chore\n" +
	"• /week, /month — completion reports\n" +
	"• /newchore — add a chore step by step (parents)\n" +
	"• /delete &lt;id&gt; — delete a chore (parents)\n" +
	"• /review — approve finished chores (parents)\n" +
	"• /categories — list categories\n" +
	"• /family — members and invite code\n" +
	"• /join &lt;code&gt; — join another family\n" +
	"• /promote &lt;member&gt; — make a member a parent\n" +
	"• /timezone &lt;zone&gt; — when the family's day starts\n" +
	"• /cancel — stop the current dialog"

func escape(s string) string {
	return html.EscapeString(s)
}

func parseID(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if value == 0 {
		return 0, fmt.Errorf("id must be positive")
	}
	return uint(value), nil
}

// errorText turns a service error into a reply.
func errorText(err error) string {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "Chore not found."
	case errors.Is(err, service.ErrForbidden):
		return "🔒 Only parents can do that."
	case errors.Is(err, repository.ErrConflict):
		return "Someone already reviewed that."
	case errors.Is(err, recurrence.ErrInvalidPattern), errors.Is(err, service.ErrValidation):
		return fmt.Sprintf("Could not save the chore: %s", escape(err.Error()))
	case errors.Is(err, recurrence.ErrMalformedRule):
		return "The schedule of this chore is broken. Delete it and add it again."
	default:
		return fmt.Sprintf("Something went wrong: %s", escape(err.Error()))
	}
}

func choreList(tasks []model.Task, catNames map[uint]string, canDelete bool) (string, [][]tgbotapi.InlineKeyboardButton) {
	type categoryGroup struct {
		Name  string
		Tasks []model.Task
	}

	groups := make(map[string]*categoryGroup)
	var order []string
	for _, task := range tasks {
		key, display := normalizedCategory(task.CategoryID, catNames)
		group, ok := groups[key]
		if !ok {
			group = &categoryGroup{Name: display}
			groups[key] = group
			order = append(order, key)
		}
		group.Tasks = append(group.Tasks, task)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i] == noCategoryKey {
			return false
		}
		if order[j] == noCategoryKey {
			return true
		}
		return groups[order[i]].Name < groups[order[j]].Name
	})

	var builder strings.Builder
	builder.WriteString("🧹 <b>Chores</b>\n")
	builder.WriteString("Tap a button to mark a chore done.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, key := range order {
		section := groups[key]
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n", section.Name))
		for _, task := range section.Tasks {
			builder.WriteString(formatChore(task))
			row := []tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 20)), fmt.Sprintf("%s%d", cbDonePrefix, task.ID)),
			}
			if canDelete {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)))
			}
			buttons = append(buttons, row)
		}
		builder.WriteByte('\n')
	}
	return strings.TrimSpace(builder.String()), buttons
}

func formatChore(task model.Task) string {
	if task.IsRecurring {
		schedule := "broken schedule"
		if task.RRule != nil {
			if p := recurrence.Parse(*task.RRule); p != nil {
				schedule = recurrence.Describe(p)
			}
		}
		return fmt.Sprintf("%s <b>#%d</b> %s · %s\n", iconRecurring, task.ID, escape(task.Title), schedule)
	}
	line := fmt.Sprintf("%s <b>#%d</b> %s", iconOneOff, task.ID, escape(task.Title))
	if task.DueDate != nil {
		line += " · due " + task.DueDate.Format("2006-01-02")
	}
	return line + "\n"
}

func formatCreated(task model.Task) string {
	var summary strings.Builder
	summary.WriteString("✅ <b>Chore saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(task.Title)))
	if task.Description != "" {
		summary.WriteString(fmt.Sprintf("• <b>Description:</b> %s\n", escape(task.Description)))
	}
	if task.IsRecurring && task.RRule != nil {
		summary.WriteString(fmt.Sprintf("• <b>Repeats:</b> %s\n", recurrence.Describe(recurrence.Parse(*task.RRule))))
	}
	if task.DueDate != nil {
		label := "Due"
		if task.IsRecurring {
			label = "Starts"
		}
		summary.WriteString(fmt.Sprintf("• <b>%s:</b> %s\n", label, task.DueDate.Format("2006-01-02")))
	}
	return strings.TrimSpace(summary.String())
}

func formatNextDates(task model.Task, dates []time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔮 <b>#%d %s</b>\n", task.ID, escape(task.Title)))
	if task.IsRecurring && task.RRule != nil {
		sb.WriteString(recurrence.Describe(recurrence.Parse(*task.RRule)) + "\n")
	}
	if len(dates) == 0 {
		sb.WriteString("No upcoming dates.")
		return sb.String()
	}
	for _, d := range dates {
		sb.WriteString("• " + d.Format("Mon 2006-01-02") + "\n")
	}
	return strings.TrimSpace(sb.String())
}

func reviewList(pending []model.Completion, tasks []model.Task, members []model.Member) (string, [][]tgbotapi.InlineKeyboardButton) {
	titles := make(map[uint]string, len(tasks))
	for _, t := range tasks {
		titles[t.ID] = t.Title
	}
	names := make(map[uint]string, len(members))
	for _, m := range members {
		names[m.ID] = m.DisplayName()
	}

	var builder strings.Builder
	builder.WriteString("🔍 <b>Waiting for review</b>\n\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, c := range pending {
		title := titles[c.TaskID]
		builder.WriteString(fmt.Sprintf("• %s: %s <i>(%s)</i>\n",
			escape(names[c.MemberID]), escape(title), c.CompletedAt.Format("Mon 15:04")))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("👍 %s", shortTitle(title, 18)), fmt.Sprintf("%s%d", cbApprovePrefix, c.ID)),
			tgbotapi.NewInlineKeyboardButtonData("👎", fmt.Sprintf("%s%d", cbRejectPrefix, c.ID)),
		))
	}
	return strings.TrimSpace(builder.String()), buttons
}

func formatFamily(family model.Family, members []model.Member) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏠 <b>%s</b>\n", escape(family.Name)))
	sb.WriteString(fmt.Sprintf("Invite code: <code>%s</code>\n", escape(family.InviteCode)))
	sb.WriteString(fmt.Sprintf("Time zone: <code>%s</code>\n\n", escape(family.Location().String())))
	for _, m := range members {
		role := "🧒"
		if m.IsParent {
			role = "👑"
		}
		sb.WriteString(fmt.Sprintf("%s %d. %s\n", role, m.ID, escape(m.DisplayName())))
	}
	return strings.TrimSpace(sb.String())
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizedCategory(categoryID *uint, catNames map[uint]string) (string, string) {
	if categoryID == nil {
		return noCategoryKey, categoryLabel(noCategory)
	}
	if name, ok := catNames[*categoryID]; ok {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return noCategoryKey, categoryLabel(noCategory)
		}
		return strings.ToLower(trimmed), categoryLabel(trimmed)
	}
	return noCategoryKey, categoryLabel(noCategory)
}

func categoryLabel(name string) string {
	base := strings.TrimSpace(name)
	var icon string
	switch strings.ToLower(base) {
	case "kitchen":
		icon = "🍽"
	case "laundry":
		icon = "🧺"
	case "pets":
		icon = "🐾"
	case "garden":
		icon = "🌱"
	case "school":
		icon = "🎒"
	case strings.ToLower(noCategory):
		icon = "📁"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, escape(base))
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "stop"
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelChores),
			tgbotapi.NewKeyboardButton(menuLabelNewChore),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelWeek),
			tgbotapi.NewKeyboardButton(menuLabelReview),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func frequencyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnOnce),
			tgbotapi.NewKeyboardButton(btnDaily),
			tgbotapi.NewKeyboardButton(btnWeekly),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnMonthly),
			tgbotapi.NewKeyboardButton(btnCustom),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Kitchen"),
			tgbotapi.NewKeyboardButton("Laundry"),
			tgbotapi.NewKeyboardButton("Pets"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("Garden"),
			tgbotapi.NewKeyboardButton("School"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
