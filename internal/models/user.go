package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is an account that can log in. Customers place sales; accounts with
// EsAdmin set manage the catalog, suppliers, purchases and other users.
type User struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	Username      string    `json:"username" gorm:"unique;not null"`
	Email         string    `json:"email" gorm:"unique;not null"`
	Password      string    `json:"-" gorm:"not null"` // digest, never plaintext
	EsAdmin       bool      `json:"es_admin" gorm:"default:false"`
	FechaRegistro time.Time `json:"fecha_registro" gorm:"autoCreateTime"`
}

func (User) TableName() string { return "usuarios" }

// FindUser returns the user with the given id, or nil when absent.
func FindUser(db *gorm.DB, id uint) (*User, error) {
	var u User
	if err := db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// FindUserByUsername returns the user with the given username, or nil.
func FindUserByUsername(db *gorm.DB, username string) (*User, error) {
	var u User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// SearchUsers matches the text as a case-insensitive substring of the
// username or email, ordered by username.
func SearchUsers(db *gorm.DB, text string) ([]User, error) {
	like := "%" + strings.ToLower(text) + "%"
	var users []User
	err := db.Where("lower(username) LIKE ? OR lower(email) LIKE ?", like, like).
		Order("username").Find(&users).Error
	return users, err
}

// Save inserts the user when it has no id, otherwise overwrites its mutable
// columns. Returns the (possibly assigned) id.
func (u *User) Save(db *gorm.DB) (uint, error) {
	if u.ID == 0 {
		if err := db.Create(u).Error; err != nil {
			return 0, err
		}
		return u.ID, nil
	}
	err := db.Model(&User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"username": u.Username,
		"email":    u.Email,
		"password": u.Password,
		"es_admin": u.EsAdmin,
	}).Error
	return u.ID, err
}

// Delete removes the user and reports whether a row was removed.
func (u *User) Delete(db *gorm.DB) (bool, error) {
	res := db.Delete(&User{}, u.ID)
	return res.RowsAffected > 0, res.Error
}
