package common

import (
	"context"
	"ers/src/db"
	"ers/src/lib"
	"ers/src/models"
	"ers/src/types"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const permCacheTTL = 10 * time.Minute

// GrantPermission upserts the grant for (equipmentId, userId); that pair is
// the uniqueness key, so granting again overwrites the level and granter
// rather than adding a row.
func GrantPermission(equipmentId uint, userId uint, grantedBy uint, level types.PermissionLevel) (*models.EquipmentPermission, error) {
	if !level.Valid() {
		return nil, ErrInvalidStatus
	}
	perm := models.EquipmentPermission{
		EquipmentID: equipmentId,
		UserID:      userId,
		GrantedBy:   grantedBy,
		Level:       level,
	}
	dbi := db.GetDb()
	err := dbi.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Equipment{}).Where("id = ?", equipmentId).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrEquipmentNotFound
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userId).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUserNotFound
		}
		if err := tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "equipment_id"}, {Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"level", "granted_by", "updated_at"}),
			}).
			Create(&perm).
			Error; err != nil {
			return err
		}
		// re-read so the returned row carries the surviving primary key
		return tx.
			Where(&models.EquipmentPermission{EquipmentID: equipmentId, UserID: userId}).
			First(&perm).
			Error
	})
	if err != nil {
		return nil, err
	}
	invalidatePermCache(equipmentId, userId)
	return &perm, nil
}

// RevokePermission deletes the grant if present. Revoking a grant that does
// not exist is a no-op, not an error.
func RevokePermission(equipmentId uint, userId uint) error {
	dbi := db.GetDb()
	err := dbi.
		Unscoped().
		Where(&models.EquipmentPermission{EquipmentID: equipmentId, UserID: userId}).
		Delete(&models.EquipmentPermission{}).
		Error
	if err != nil {
		return err
	}
	invalidatePermCache(equipmentId, userId)
	return nil
}

// GetPermission returns the grant for the pair, or nil when none exists.
func GetPermission(tx *gorm.DB, equipmentId uint, userId uint) (*models.EquipmentPermission, error) {
	var perm models.EquipmentPermission
	err := tx.
		Where(&models.EquipmentPermission{EquipmentID: equipmentId, UserID: userId}).
		First(&perm).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &perm, nil
}

// GetPermissionLevel is a cached read of the grant level, empty string when
// no grant exists. The cache is skipped entirely when redis is not
// configured.
func GetPermissionLevel(equipmentId uint, userId uint) (types.PermissionLevel, error) {
	key := permCacheKey(equipmentId, userId)
	if rd := lib.GetRedisClient(); rd != nil {
		if val, err := rd.Get(context.Background(), key).Result(); err == nil {
			if val == "none" {
				return "", nil
			}
			return types.PermissionLevel(val), nil
		}
	}
	perm, err := GetPermission(db.GetDb(), equipmentId, userId)
	if err != nil {
		return "", err
	}
	level := types.PermissionLevel("")
	cached := "none"
	if perm != nil {
		level = perm.Level
		cached = string(perm.Level)
	}
	if rd := lib.GetRedisClient(); rd != nil {
		if err := rd.Set(context.Background(), key, cached, permCacheTTL).Err(); err != nil {
			log.Printf("Error caching permission level for %s: %s\n", key, err.Error())
		}
	}
	return level, nil
}

// CanManageEquipment reports whether the user holds a manager-level grant
// for the equipment.
func CanManageEquipment(tx *gorm.DB, equipmentId uint, userId uint) (bool, error) {
	var count int64
	err := tx.
		Model(&models.EquipmentPermission{}).
		Where(&models.EquipmentPermission{EquipmentID: equipmentId, UserID: userId, Level: types.PERMISSION_MANAGER}).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetManagedEquipment lists the equipment the user holds manager grants for.
func GetManagedEquipment(userId uint) ([]models.Equipment, error) {
	dbi := db.GetDb()
	var equipment []models.Equipment
	err := dbi.
		Joins("JOIN equipment_permissions ON equipment_permissions.equipment_id = equipment.id").
		Where("equipment_permissions.user_id = ? AND equipment_permissions.level = ?", userId, types.PERMISSION_MANAGER).
		Find(&equipment).
		Error
	if err != nil {
		return nil, err
	}
	return equipment, nil
}

func permCacheKey(equipmentId uint, userId uint) string {
	return fmt.Sprintf("perm:%d:%d", equipmentId, userId)
}

func invalidatePermCache(equipmentId uint, userId uint) {
	if rd := lib.GetRedisClient(); rd != nil {
		if err := rd.Del(context.Background(), permCacheKey(equipmentId, userId)).Err(); err != nil {
			log.Printf("Error invalidating permission cache: %s\n", err.Error())
		}
	}
}
