package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"channel-chat/models"
)

type GormUserRepo struct {
	db *gorm.DB
}

func NewGormUserRepo(db *gorm.DB) *GormUserRepo {
	return &GormUserRepo{db: db}
}

func (r *GormUserRepo) Create(ctx context.Context, u *models.User) error {
	return translate("create user", r.db.WithContext(ctx).Create(u).Error)
}

func (r *GormUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate("find user", err)
	}
	return &u, nil
}

func (r *GormUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate("find user", err)
	}
	return &u, nil
}

type GormChannelRepo struct {
	db *gorm.DB
}

func NewGormChannelRepo(db *gorm.DB) *GormChannelRepo {
	return &GormChannelRepo{db: db}
}

func (r *GormChannelRepo) Create(ctx context.Context, ch *models.Channel) error {
	return translate("create channel", r.db.WithContext(ctx).Create(ch).Error)
}

func (r *GormChannelRepo) FindByID(ctx context.Context, id uint) (*models.Channel, error) {
	var ch models.Channel
	if err := r.db.WithContext(ctx).First(&ch, id).Error; err != nil {
		return nil, translate("find channel", err)
	}
	return &ch, nil
}

func (r *GormChannelRepo) List(ctx context.Context) ([]models.Channel, error) {
	channels := []models.Channel{}
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&channels).Error; err != nil {
		return nil, translate("list channels", err)
	}
	return channels, nil
}

func (r *GormChannelRepo) FindByIDs(ctx context.Context, ids []uint) ([]models.Channel, error) {
	channels := []models.Channel{}
	if len(ids) == 0 {
		return channels, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&channels).Error; err != nil {
		return nil, translate("list channels", err)
	}
	return channels, nil
}

type GormMembershipRepo struct {
	db *gorm.DB
}

func NewGormMembershipRepo(db *gorm.DB) *GormMembershipRepo {
	return &GormMembershipRepo{db: db}
}

func (r *GormMembershipRepo) Add(ctx context.Context, channelID, userID uint) (bool, error) {
	m := models.Membership{ChannelID: channelID, UserID: userID, JoinedAt: time.Now()}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&m)
	if err := result.Error; err != nil {
		return false, translate("add membership", err)
	}
	return result.RowsAffected > 0, nil
}

func (r *GormMembershipRepo) Remove(ctx context.Context, channelID, userID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Delete(&models.Membership{})
	if err := result.Error; err != nil {
		return false, translate("remove membership", err)
	}
	return result.RowsAffected > 0, nil
}

func (r *GormMembershipRepo) IsMember(ctx context.Context, channelID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Membership{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, translate("check membership", err)
	}
	return count > 0, nil
}

func (r *GormMembershipRepo) ListMembers(ctx context.Context, channelID uint) ([]models.Membership, error) {
	memberships := []models.Membership{}
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("joined_at ASC, id ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, translate("list members", err)
	}
	return memberships, nil
}

func (r *GormMembershipRepo) ListChannelIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.Membership{}).
		Where("user_id = ?", userID).
		Order("channel_id ASC").
		Pluck("channel_id", &ids).Error
	if err != nil {
		return nil, translate("list user channels", err)
	}
	return ids, nil
}

type GormMessageRepo struct {
	db *gorm.DB
}

func NewGormMessageRepo(db *gorm.DB) *GormMessageRepo {
	return &GormMessageRepo{db: db}
}

func (r *GormMessageRepo) Append(ctx context.Context, msg *models.Message) error {
	msg.ID = 0
	msg.CreatedAt = time.Now()
	return translate("append message", r.db.WithContext(ctx).Create(msg).Error)
}

func (r *GormMessageRepo) Recent(ctx context.Context, channelID uint, limit, offset int) ([]models.Message, error) {
	msgs := []models.Message{}
	if limit <= 0 || offset < 0 {
		return msgs, nil
	}
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, translate("list messages", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
