package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chore-tracker/internal/calendar"
	"chore-tracker/internal/config"
	"chore-tracker/internal/model"
	"chore-tracker/internal/repository"
	"chore-tracker/internal/service"
)

const (
	cbDonePrefix    = "done:"
	cbDeletePrefix  = "delete:"
	cbApprovePrefix = "approve:"
	cbRejectPrefix  = "reject:"
)

const nextDatesCount = 5

type confirmationRequest struct {
	taskID uint
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	memberRepo    *repository.MemberRepository
	categorySvc   *service.CategoryService
	choreSvc      *service.ChoreService
	reviewSvc     *service.ReviewService
	reportSvc     *service.ReportService
	config        *config.Config
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(token string, memberRepo *repository.MemberRepository, categorySvc *service.CategoryService, choreSvc *service.ChoreService, reviewSvc *service.ReviewService, reportSvc *service.ReportService, cfg *config.Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		memberRepo:    memberRepo,
		categorySvc:   categorySvc,
		choreSvc:      choreSvc,
		reviewSvc:     reviewSvc,
		reportSvc:     reportSvc,
		config:        cfg,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("[warn] handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("[warn] handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled. Pick something from the menu to start again.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		log.Printf("[info] conversation step %d from %d", b.getConversation(msg.From.ID).stage, msg.From.ID)
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Use /newchore to add a chore or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "join":
		return b.handleJoin(ctx, msg)
	case "family":
		return b.handleFamily(ctx, msg)
	case "promote":
		return b.handlePromote(ctx, msg)
	case "timezone":
		return b.handleTimezone(ctx, msg)
	case "newchore":
		return b.startNewChoreConversation(ctx, msg)
	case "today":
		return b.handleToday(ctx, msg)
	case "chores":
		return b.handleListChores(ctx, msg)
	case "done":
		return b.handleDone(ctx, msg)
	case "review":
		return b.handleReview(ctx, msg)
	case "week":
		return b.handleRollup(ctx, msg, calendar.Weekly)
	case "month":
		return b.handleRollup(ctx, msg, calendar.Monthly)
	case "next":
		return b.handleNext(ctx, msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. Have a look at /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	member, family, err := b.ensureMember(ctx, msg.From)
	if err != nil {
		return err
	}

	role := "a parent"
	if !member.IsParent {
		role = "a child"
	}
	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>I keep track of your family's chores.</b>\n\n"+
			"You are %s in <b>%s</b>.\n"+
			"Share the invite code <code>%s</code> so others can /join.\n\n%s",
		escape(member.DisplayName()), role, escape(family.Name), escape(family.InviteCode), helpText,
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Commands</b>\n"+helpText)
}

func (b *Bot) handleJoin(ctx context.Context, msg *tgbotapi.Message) error {
	code := strings.TrimSpace(msg.CommandArguments())
	if code == "" {
		return b.sendText(msg.Chat.ID, "Send the invite code: /join a1b2c3d4e5")
	}
	member, _, err := b.ensureMember(ctx, msg.From)
	if err != nil {
		return err
	}
	family, err := b.memberRepo.JoinFamily(ctx, member, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return b.sendText(msg.Chat.ID, "No family uses that invite code.")
		}
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	log.Printf("[info] member %d joined family %d", member.ID, family.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🏠 Welcome to <b>%s</b>!", escape(family.Name)))
}

func (b *Bot) handleFamily(ctx context.Context, msg *tgbotapi.Message) error {
	_, family, err := b.ensureMember(ctx, msg.From)
	if err != nil {
		return err
	}
	members, err := b.memberRepo.ListByFamily(ctx, family.ID)
	if err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	return b.sendText(msg.Chat.ID, formatFamily(*family, members))
}

func (b *Bot) handlePromote(ctx context.Context, msg *tgbotapi.Message) error {
	targetID, err := parseID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Send the member number from /family: /promote 2")
	}
	member, family, err := b.ensureMember(ctx, msg.From)
	if err != nil {
		return err
	}
	if !member.IsParent {
		return b.sendText(msg.Chat.ID, errorText(service.ErrForbidden))
	}
	members, err := b.memberRepo.ListByFamily(ctx, family.ID)
	if err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	for i := range members {
		if members[i].ID != targetID {
			continue
		}
		if err := b.memberRepo.SetParent(ctx, &members[i], true); err != nil {
			return b.sendText(msg.Chat.ID, errorText(err))
		}
		return b.sendText(msg.Chat.ID, fmt.Sprintf("👑 %s is now a parent.", escape(members[i].DisplayName())))
	}
	return b.sendText(msg.Chat.ID, "No such member in your family.")
}

func (b *Bot) handleTimezone(ctx context.Context, msg *tgbotapi.Message) error {
	member, family, err := b.ensureMember(ctx, msg.From)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Current time zone: <code>%s</code>. Change it with /timezone Europe/Berlin", escape(family.Location().String())))
	}
	if !member.IsParent {
		return b.sendText(msg.Chat.ID, errorText(service.ErrForbidden))
	}
	if _, err := time.LoadLocation(name); err != nil {
		return b.sendText(msg.Chat.ID, "Unknown time zone. Use a name such as <code>Europe/Berlin</code>.")
	}
	if err := b.memberRepo.SetTimezone(ctx, family.ID, name); err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🕰 Days now start at midnight in <code>%s</code>.", escape(name)))
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	_, family, err := b.ensureMember(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.reportSvc.DailySummary(ctx, *family, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleRollup(ctx context.Context, msg *tgbotapi.Message, kind calendar.Kind) error {
	_, family, err := b.ensureMember(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.reportSvc.RollupSummary(ctx, *family, kind, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleListChores(ctx context.Context, msg *tgbotapi.Message) error {
	member, _, err := b.ensureMember(ctx, msg.From)
	if err != nil {
		return err
	}

	log.Printf("[info] list chores for member=%d", member.ID)
	return b.sendChoreList(ctx, msg.Chat.ID, member)
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, err := parseID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Send the chore number: /done 12")
	}
	return b.completeChore(ctx, msg.Chat.ID, msg.From, taskID)
}

func (b *Bot) handleNext(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, err := parseID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Send the chore number: /next 12")
	}
	member, family, err := b.ensureMember(ctx, msg.From)
	if err != nil {
		return err
	}
	task, dates, err := b.choreSvc.NextDates(ctx, member, taskID, time.Now(), family.Location(), nextDatesCount)
	if err != nil && task == nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	if err != nil {
		log.Printf("[warn] next dates task=%d: %v", taskID, err)
	}
	return b.sendText(msg.Chat.ID, formatNextDates(*task, dates))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	taskID, err := parseID(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Send the chore number: /delete 12")
	}
	return b.askDeleteConfirmation(ctx, msg.Chat.ID, msg.From, taskID)
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	member, _, err := b.ensureMember(ctx, msg.From)
	if err != nil {
		return err
	}
	categories, err := b.categorySvc.List(ctx, member)
	if err != nil {
		return b.sendText(msg.Chat.ID, errorText(err))
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "No categories yet. Add one while creating a chore.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	for _, cat := range categories {
		builder.WriteString(fmt.Sprintf("• %s\n", categoryLabel(cat.Name)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleReview(ctx context.Context, msg *tgbotapi.Message) error {
	member, _, err := b.ensureMember(ctx, msg.From)
	if err != nil {
		return err
	}
	if !member.IsParent {
		return b.sendText(msg.Chat.ID, errorText(service.ErrForbidden))
	}
	return b.sendReviewList(ctx, msg.Chat.ID, member)
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.deleteChoreAndRefresh(ctx, msg.Chat.ID, msg.From, req.taskID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("[warn] callback ack: %v", err)
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID
	log.Printf("[info] callback user=%d data=%s", cb.From.ID, data)

	switch {
	case strings.HasPrefix(data, cbDonePrefix):
		taskID, err := parseID(strings.TrimPrefix(data, cbDonePrefix))
		if err != nil {
			return nil
		}
		return b.completeChore(ctx, chatID, cb.From, taskID)
	case strings.HasPrefix(data, cbDeletePrefix):
		taskID, err := parseID(strings.TrimPrefix(data, cbDeletePrefix))
		if err != nil {
			return nil
		}
		return b.askDeleteConfirmation(ctx, chatID, cb.From, taskID)
	case strings.HasPrefix(data, cbApprovePrefix):
		completionID, err := parseID(strings.TrimPrefix(data, cbApprovePrefix))
		if err != nil {
			return nil
		}
		return b.reviewCompletion(ctx, chatID, cb.From, completionID, true)
	case strings.HasPrefix(data, cbRejectPrefix):
		completionID, err := parseID(strings.TrimPrefix(data, cbRejectPrefix))
		if err != nil {
			return nil
		}
		return b.reviewCompletion(ctx, chatID, cb.From, completionID, false)
	default:
		return nil
	}
}

func (b *Bot) completeChore(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	member, _, err := b.ensureMember(ctx, from)
	if err != nil {
		return err
	}
	completion, err := b.choreSvc.Complete(ctx, member, taskID, time.Now())
	if err != nil {
		return b.sendText(chatID, errorText(err))
	}
	task, err := b.choreSvc.GetChore(ctx, member, taskID)
	if err != nil {
		return b.sendText(chatID, errorText(err))
	}

	log.Printf("[info] chore completed task=%d member=%d status=%s", task.ID, member.ID, completion.Status)
	if completion.Status == model.StatusPendingReview {
		b.notifyParents(ctx, member, fmt.Sprintf("⏳ %s finished «%s». Check /review.", escape(member.DisplayName()), escape(task.Title)))
		return b.sendText(chatID, fmt.Sprintf("⏳ «%s» is waiting for a parent to check it.", escape(task.Title)))
	}
	return b.sendText(chatID, fmt.Sprintf("✅ «%s» is done.", escape(task.Title)))
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	member, _, err := b.ensureMember(ctx, from)
	if err != nil {
		return err
	}
	if !member.IsParent {
		return b.sendText(chatID, errorText(service.ErrForbidden))
	}

	task, err := b.choreSvc.GetChore(ctx, member, taskID)
	if err != nil {
		return b.sendText(chatID, errorText(err))
	}

	text := fmt.Sprintf("Delete «%s» (#%d) and its history?", escape(task.Title), task.ID)
	b.setConfirmation(from.ID, confirmationRequest{taskID: task.ID})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) deleteChoreAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	member, _, err := b.ensureMember(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.choreSvc.GetChore(ctx, member, taskID)
	if err != nil {
		return b.sendTextWithRemove(chatID, errorText(err))
	}
	if err := b.choreSvc.DeleteChore(ctx, member, taskID); err != nil {
		return b.sendTextWithRemove(chatID, errorText(err))
	}

	log.Printf("[info] chore deleted task=%d member=%d", task.ID, member.ID)
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("🗑 «%s» deleted.", escape(task.Title))); err != nil {
		return err
	}
	return b.sendChoreList(ctx, chatID, member)
}

func (b *Bot) reviewCompletion(ctx context.Context, chatID int64, from *tgbotapi.User, completionID uint, approve bool) error {
	member, _, err := b.ensureMember(ctx, from)
	if err != nil {
		return err
	}

	var completion *model.Completion
	if approve {
		completion, err = b.reviewSvc.Approve(ctx, member, completionID, time.Now())
	} else {
		completion, err = b.reviewSvc.Reject(ctx, member, completionID, time.Now())
	}
	if err != nil {
		return b.sendText(chatID, errorText(err))
	}

	log.Printf("[info] completion reviewed id=%d status=%s reviewer=%d", completion.ID, completion.Status, member.ID)
	if approve {
		return b.sendText(chatID, "👍 Approved.")
	}
	return b.sendText(chatID, "↩️ Sent back.")
}

func (b *Bot) sendChoreList(ctx context.Context, chatID int64, member *model.Member) error {
	tasks, err := b.choreSvc.ListChores(ctx, member.FamilyID)
	if err != nil {
		return b.sendText(chatID, errorText(err))
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "No chores yet. Add one with /newchore.")
	}

	categories, _ := b.categorySvc.List(ctx, member)
	catNames := make(map[uint]string, len(categories))
	for _, cat := range categories {
		catNames[cat.ID] = cat.Name
	}

	text, buttons := choreList(tasks, catNames, member.IsParent)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) sendReviewList(ctx context.Context, chatID int64, member *model.Member) error {
	pending, err := b.reviewSvc.Pending(ctx, member)
	if err != nil {
		return b.sendText(chatID, errorText(err))
	}
	if len(pending) == 0 {
		return b.sendText(chatID, "🎉 Nothing to review.")
	}

	tasks, err := b.choreSvc.ListChores(ctx, member.FamilyID)
	if err != nil {
		return b.sendText(chatID, errorText(err))
	}
	members, err := b.memberRepo.ListByFamily(ctx, member.FamilyID)
	if err != nil {
		return b.sendText(chatID, errorText(err))
	}

	text, buttons := reviewList(pending, tasks, members)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) notifyParents(ctx context.Context, from *model.Member, text string) {
	members, err := b.memberRepo.ListByFamily(ctx, from.FamilyID)
	if err != nil {
		log.Printf("[warn] list parents family=%d: %v", from.FamilyID, err)
		return
	}
	for _, m := range members {
		if !m.IsParent || m.ID == from.ID {
			continue
		}
		if err := b.sendText(m.TelegramID, text); err != nil {
			log.Printf("[warn] notify parent %d: %v", m.TelegramID, err)
		}
	}
}

// SendDailyAgendas sends today's agenda to every member of every family.
func (b *Bot) SendDailyAgendas(ctx context.Context) error {
	return b.broadcast(ctx, func(family model.Family, now time.Time) (string, error) {
		return b.reportSvc.DailySummary(ctx, family, now)
	})
}

// SendWeeklyReports sends the rollup of the current week to every family.
func (b *Bot) SendWeeklyReports(ctx context.Context) error {
	return b.broadcast(ctx, func(family model.Family, now time.Time) (string, error) {
		return b.reportSvc.RollupSummary(ctx, family, calendar.Weekly, now)
	})
}

func (b *Bot) broadcast(ctx context.Context, build func(model.Family, time.Time) (string, error)) error {
	families, err := b.memberRepo.ListFamilies(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, family := range families {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := build(family, now)
		if err != nil {
			log.Printf("[warn] build message for family %d: %v", family.ID, err)
			continue
		}
		for _, member := range family.Members {
			if err := b.sendText(member.TelegramID, text); err != nil {
				log.Printf("[warn] send to %d: %v", member.TelegramID, err)
			}
		}
	}
	return nil
}

func (b *Bot) ensureMember(ctx context.Context, from *tgbotapi.User) (*model.Member, *model.Family, error) {
	member, err := b.memberRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName, b.config.Timezone)
	if err != nil {
		return nil, nil, err
	}
	family, err := b.memberRepo.FindFamily(ctx, member.FamilyID)
	if err != nil {
		return nil, nil, err
	}
	return member, family, nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendMenuPlaceholder(chatID)
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "🔹 Main menu")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewChore):
		return true, b.startNewChoreConversation(ctx, msg)
	case strings.ToLower(menuLabelToday):
		return true, b.handleToday(ctx, msg)
	case strings.ToLower(menuLabelChores):
		return true, b.handleListChores(ctx, msg)
	case strings.ToLower(menuLabelWeek):
		return true, b.handleRollup(ctx, msg, calendar.Weekly)
	case strings.ToLower(menuLabelReview):
		return true, b.handleReview(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
