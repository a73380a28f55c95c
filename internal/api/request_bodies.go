package api

import (
	"github.com/lcrostarosa/nirbhaya/internal/contacts"
	"github.com/lcrostarosa/nirbhaya/internal/session"
)

// LoginBody is the request body for signing in
type LoginBody struct {
	ID           string `json:"id,omitempty"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	BloodGroup   string `json:"bloodGroup"`
	DateOfBirth  string `json:"dateOfBirth"`
	ProfileImage string `json:"profileImage,omitempty"`
}

func (b *LoginBody) Validate() error {
	return required("name", b.Name)
}

func (b *LoginBody) profile() session.UserProfile {
	return session.UserProfile{
		ID:           b.ID,
		Email:        b.Email,
		Name:         b.Name,
		Phone:        b.Phone,
		BloodGroup:   b.BloodGroup,
		DateOfBirth:  b.DateOfBirth,
		ProfileImage: b.ProfileImage,
	}
}

// ProfileBody is the request body for a profile update
type ProfileBody struct {
	session.ProfilePatch
}

func (b *ProfileBody) Validate() error {
	return notBlank("name", b.Name)
}

// AddContactBody is the request body for adding a contact
type AddContactBody struct {
	contacts.NewContact
}

func (b *AddContactBody) Validate() error {
	if err := required("name", b.Name); err != nil {
		return err
	}
	if err := required("phone", b.Phone); err != nil {
		return err
	}
	return required("relationship", b.Relationship)
}

// UpdateContactBody is the request body for editing a contact
type UpdateContactBody struct {
	contacts.Patch
}

func (b *UpdateContactBody) Validate() error {
	if err := notBlank("name", b.Name); err != nil {
		return err
	}
	if err := notBlank("phone", b.Phone); err != nil {
		return err
	}
	return notBlank("relationship", b.Relationship)
}
