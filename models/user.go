package models

import (
	"time"
)

type User struct {
	ID        string    `bson:"_id" json:"id" firestore:"-"`
	Username  string    `bson:"username" json:"username" firestore:"username"`
	Email     string    `bson:"email" json:"email" firestore:"email"`
	Password  string    `bson:"password" json:"-" firestore:"password"`
	Profile   Profile   `bson:"profile,omitempty" json:"profile,omitempty" firestore:"profile,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at" firestore:"created_at"`
}

// Profile holds the business details a user can attach to the account.
type Profile struct {
	BusinessName   string `bson:"business_name,omitempty" json:"business_name,omitempty" firestore:"business_name,omitempty"`
	GSTNumber      string `bson:"gst_number,omitempty" json:"gst_number,omitempty" firestore:"gst_number,omitempty"`
	AnnualTurnover string `bson:"annual_turnover,omitempty" json:"annual_turnover,omitempty" firestore:"annual_turnover,omitempty"`
	OwnerName      string `bson:"owner_name,omitempty" json:"owner_name,omitempty" firestore:"owner_name,omitempty"`
}

func (p Profile) Empty() bool {
	return p == Profile{}
}

// UpdateProfile is merged into the stored profile; nil fields are kept.
type UpdateProfile struct {
	BusinessName   *string `json:"business_name,omitempty"`
	GSTNumber      *string `json:"gst_number,omitempty"`
	AnnualTurnover *string `json:"annual_turnover,omitempty"`
	OwnerName      *string `json:"owner_name,omitempty"`
}

func (u UpdateProfile) Empty() bool {
	return u.BusinessName == nil && u.GSTNumber == nil && u.AnnualTurnover == nil && u.OwnerName == nil
}

func (u UpdateProfile) Apply(p *Profile) {
	if u.BusinessName != nil {
		p.BusinessName = *u.BusinessName
	}
	if u.GSTNumber != nil {
		p.GSTNumber = *u.GSTNumber
	}
	if u.AnnualTurnover != nil {
		p.AnnualTurnover = *u.AnnualTurnover
	}
	if u.OwnerName != nil {
		p.OwnerName = *u.OwnerName
	}
}

// Fields returns the set fields keyed by their stored name.
func (u UpdateProfile) Fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if u.BusinessName != nil {
		fields["business_name"] = *u.BusinessName
	}
	if u.GSTNumber != nil {
		fields["gst_number"] = *u.GSTNumber
	}
	if u.AnnualTurnover != nil {
		fields["annual_turnover"] = *u.AnnualTurnover
	}
	if u.OwnerName != nil {
		fields["owner_name"] = *u.OwnerName
	}
	return fields
}

type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserInfo struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type LoginResult struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         UserInfo `json:"user"`
}
