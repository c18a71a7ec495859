package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chore-tracker/internal/model"
)

// MemberRepository handles families and their members.
type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// UpsertFromTelegram finds a member by TelegramID and refreshes the profile.
// Unknown users get a new family of their own and become its parent.
func (r *MemberRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, firstName, lastName, username, timezone string) (*model.Member, error) {
	var member model.Member
	db := r.db.WithContext(ctx)
	err := db.Where("telegram_id = ?", telegramID).First(&member).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"first_name": firstName,
			"last_name":  lastName,
			"username":   username,
		}
		if err := db.Model(&member).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update member: %w", err)
		}
		return &member, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		member = model.Member{
			TelegramID: telegramID,
			FirstName:  firstName,
			LastName:   lastName,
			Username:   username,
			IsParent:   true,
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			family := model.Family{
				Name:       familyName(firstName, username),
				Timezone:   timezone,
				InviteCode: newInviteCode(),
			}
			if err := tx.Create(&family).Error; err != nil {
				return fmt.Errorf("create family: %w", err)
			}
			member.FamilyID = family.ID
			if err := tx.Create(&member).Error; err != nil {
				return fmt.Errorf("create member: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &member, nil
	default:
		return nil, fmt.Errorf("find member: %w", err)
	}
}

func (r *MemberRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.Member, error) {
	var member model.Member
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) ListByFamily(ctx context.Context, familyID uint) ([]model.Member, error) {
	var members []model.Member
	if err := r.db.WithContext(ctx).Where("family_id = ?", familyID).Order("id ASC").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// JoinFamily moves member into the family owning inviteCode as a child.
func (r *MemberRepository) JoinFamily(ctx context.Context, member *model.Member, inviteCode string) (*model.Family, error) {
	var family model.Family
	db := r.db.WithContext(ctx)
	if err := db.Where("invite_code = ?", strings.TrimSpace(inviteCode)).First(&family).Error; err != nil {
		return nil, fmt.Errorf("find family: %w", err)
	}
	if err := db.Model(member).Updates(map[string]interface{}{
		"family_id": family.ID,
		"is_parent": false,
	}).Error; err != nil {
		return nil, fmt.Errorf("join family: %w", err)
	}
	return &family, nil
}

func (r *MemberRepository) SetParent(ctx context.Context, member *model.Member, isParent bool) error {
	if err := r.db.WithContext(ctx).Model(member).Update("is_parent", isParent).Error; err != nil {
		return fmt.Errorf("set parent: %w", err)
	}
	return nil
}

func (r *MemberRepository) FindFamily(ctx context.Context, familyID uint) (*model.Family, error) {
	var family model.Family
	if err := r.db.WithContext(ctx).First(&family, familyID).Error; err != nil {
		return nil, err
	}
	return &family, nil
}

func (r *MemberRepository) ListFamilies(ctx context.Context) ([]model.Family, error) {
	var families []model.Family
	if err := r.db.WithContext(ctx).Preload("Members").Find(&families).Error; err != nil {
		return nil, err
	}
	return families, nil
}

func (r *MemberRepository) SetTimezone(ctx context.Context, familyID uint, timezone string) error {
	if err := r.db.WithContext(ctx).Model(&model.Family{}).Where("id = ?", familyID).
		Update("timezone", timezone).Error; err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}
	return nil
}

func familyName(firstName, username string) string {
	switch {
	case firstName != "":
		return firstName + "'s family"
	case username != "":
		return username + "'s family"
	default:
		return "Family"
	}
}

func newInviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
