package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chore-tracker/internal/recurrence"
	"chore-tracker/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageCategory
	stageFrequency
	stageInterval
	stageWeekdays
	stageMonthDay
	stageDueDate
)

const frequencyOnce = "once"

const maxInterval = 365

type conversationState struct {
	stage     conversationStage
	loc       *time.Location
	input     service.ChoreInput
	frequency string
	interval  int
	days      []time.Weekday
	monthDay  int
}

// pattern builds the recurrence collected so far, nil for one-off chores.
func (s *conversationState) pattern() (recurrence.Pattern, error) {
	if s.frequency == frequencyOnce {
		return nil, nil
	}
	return recurrence.NewPattern(s.frequency, s.interval, s.days, s.monthDay)
}

func (b *Bot) startNewChoreConversation(ctx context.Context, msg *tgbotapi.Message) error {
	member, family, err := b.ensureMember(ctx, msg.From)
	if err != nil {
		return err
	}
	if !member.IsParent {
		return b.sendText(msg.Chat.ID, errorText(service.ErrForbidden))
	}
	log.Printf("[info] start new chore conversation member=%d", member.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle, loc: family.Location()})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New chore.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The chore needs a name.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Add a short description (or press Skip).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Pick a category or type your own (Skip is fine).", categoryKeyboard())
	case stageCategory:
		if !isSkipInput(text) {
			state.input.Category = text
		}
		state.stage = stageFrequency
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 How often does it repeat?", frequencyKeyboard())
	case stageFrequency:
		frequency, ok := parseFrequency(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of the buttons.", frequencyKeyboard())
		}
		state.frequency = frequency
		if frequency == frequencyOnce {
			state.stage = stageDueDate
			return b.sendWithReplyMarkup(msg.Chat.ID, "📅 When is it due? Use <code>2025-11-30</code>.", cancelKeyboard())
		}
		state.stage = stageInterval
		return b.sendWithReplyMarkup(msg.Chat.ID, fmt.Sprintf("🔢 Every how many %s? (Skip means every %s)", intervalUnit(frequency, 2), intervalUnit(frequency, 1)), skipKeyboard())
	case stageInterval:
		interval, err := parseInterval(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, fmt.Sprintf("Send a whole number from 1 to %d.", maxInterval), skipKeyboard())
		}
		state.interval = interval
		switch state.frequency {
		case recurrence.FrequencyWeekly:
			state.stage = stageWeekdays
			return b.sendWithReplyMarkup(msg.Chat.ID, "📆 Which days? For example <code>mon, wed, fri</code>. Skip keeps the weekday of the start date.", skipKeyboard())
		case recurrence.FrequencyMonthly:
			state.stage = stageMonthDay
			return b.sendWithReplyMarkup(msg.Chat.ID, "📆 Which day of the month? (1-31). Shorter months use their last day.", cancelKeyboard())
		default:
			state.stage = stageDueDate
			return b.sendWithReplyMarkup(msg.Chat.ID, "📅 Start date as <code>2025-11-30</code> (Skip starts today).", skipKeyboard())
		}
	case stageWeekdays:
		if !isSkipInput(text) {
			days, err := recurrence.ParseWeekdays(text)
			if err != nil || len(days) == 0 {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I could not read those days. Try <code>mon, thu</code>.", skipKeyboard())
			}
			state.days = days
		}
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "📅 Start date as <code>2025-11-30</code> (Skip starts today).", skipKeyboard())
	case stageMonthDay:
		day, err := strconv.Atoi(text)
		if err != nil || day < 1 || day > 31 {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The day must be a number from 1 to 31.", cancelKeyboard())
		}
		state.monthDay = day
		state.stage = stageDueDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "📅 Start date as <code>2025-11-30</code> (Skip starts today).", skipKeyboard())
	case stageDueDate:
		if isSkipInput(text) {
			if state.frequency == frequencyOnce {
				return b.sendWithReplyMarkup(msg.Chat.ID, "A one-off chore needs a date.", cancelKeyboard())
			}
		} else {
			due, err := parseDate(text, state.loc)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I could not read that date. Use <code>2025-11-30</code>.", skipKeyboard())
			}
			state.input.DueDate = &due
		}
		err := b.finishChoreCreation(ctx, msg.From, state, msg.Chat.ID)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Lost track of the conversation. Start again with /newchore.")
	}
}

func (b *Bot) finishChoreCreation(ctx context.Context, from *tgbotapi.User, state *conversationState, chatID int64) error {
	member, _, err := b.ensureMember(ctx, from)
	if err != nil {
		return err
	}

	pattern, err := state.pattern()
	if err != nil {
		return b.sendTextWithRemove(chatID, errorText(err))
	}
	input := state.input
	input.Pattern = pattern
	input.Location = state.loc

	task, err := b.choreSvc.CreateChore(ctx, member, input, time.Now().In(state.loc))
	if err != nil {
		return b.sendTextWithRemove(chatID, errorText(err))
	}

	log.Printf("[info] chore created id=%d member=%d recurring=%t", task.ID, member.ID, task.IsRecurring)

	if err := b.sendTextWithRemove(chatID, formatCreated(*task)); err != nil {
		return err
	}
	return b.sendChoreList(ctx, chatID, member)
}

func parseFrequency(text string) (string, bool) {
	value := strings.ToLower(strings.TrimSpace(text))
	for _, label := range []string{btnOnce, btnDaily, btnWeekly, btnMonthly, btnCustom} {
		if value == strings.ToLower(label) {
			value = strings.ToLower(strings.Fields(label)[1])
			break
		}
	}
	switch value {
	case frequencyOnce, recurrence.FrequencyDaily, recurrence.FrequencyWeekly, recurrence.FrequencyMonthly, recurrence.FrequencyCustom:
		return value, true
	default:
		return "", false
	}
}

func parseInterval(text string) (int, error) {
	if isSkipInput(text) {
		return 1, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, err
	}
	if n < 1 || n > maxInterval {
		return 0, fmt.Errorf("interval %d out of range", n)
	}
	return n, nil
}

func parseDate(text string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(text), loc)
}

func intervalUnit(frequency string, n int) string {
	unit := "day"
	switch frequency {
	case recurrence.FrequencyWeekly:
		unit = "week"
	case recurrence.FrequencyMonthly:
		unit = "month"
	}
	if n == 1 {
		return unit
	}
	return unit + "s"
}
