package model

import "time"

type Role string

const (
	RoleUser         Role = "user"
	RoleArtisan      Role = "artisan"
	RoleCollaborator Role = "collaborator"
	RoleAdmin        Role = "admin"
)

type CollaboratorRole string

const (
	CollaboratorNone            CollaboratorRole = "none"
	CollaboratorDesigner        CollaboratorRole = "designer"
	CollaboratorTechnicalExpert CollaboratorRole = "technical_expert"
	CollaboratorMarketer        CollaboratorRole = "marketer"
)

func (r CollaboratorRole) Valid() bool {
	switch r {
	case CollaboratorDesigner, CollaboratorTechnicalExpert, CollaboratorMarketer:
		return true
	}
	return false
}

type ArtisanDetails struct {
	Description     string     `gorm:"type:text" json:"description,omitempty"`
	SubmissionDate  *time.Time `json:"submissionDate,omitempty"`
	ApprovedDate    *time.Time `json:"approvedDate,omitempty"`
	ApprovedBy      string     `gorm:"size:36" json:"approvedBy,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejectionReason,omitempty"`
	RejectionDate   *time.Time `json:"rejectionDate,omitempty"`
	RejectedBy      string     `gorm:"size:36" json:"rejectedBy,omitempty"`
}

type CollaboratorDetails struct {
	Skills          []string   `gorm:"serializer:json" json:"skills,omitempty"`
	Portfolio       string     `gorm:"size:512" json:"portfolio,omitempty"`
	Experience      string     `gorm:"type:text" json:"experience,omitempty"`
	Bio             string     `gorm:"type:text" json:"bio,omitempty"`
	Specialties     []string   `gorm:"serializer:json" json:"specialties,omitempty"`
	SubmissionDate  *time.Time `json:"submissionDate,omitempty"`
	IsApproved      bool       `gorm:"not null" json:"isApproved"`
	ApprovedDate    *time.Time `json:"approvedDate,omitempty"`
	ApprovedBy      string     `gorm:"size:36" json:"approvedBy,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejectionReason,omitempty"`
	RejectionDate   *time.Time `json:"rejectionDate,omitempty"`
}

type User struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	FullName     string `gorm:"size:120;not null" json:"fullName"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Role         Role   `gorm:"size:16;index;not null" json:"role"`

	// IsApproved tracks artisan approval.
	IsApproved     bool           `gorm:"not null" json:"isApproved"`
	ArtisanDetails ArtisanDetails `gorm:"embedded;embeddedPrefix:artisan_" json:"artisanDetails"`

	CollaboratorRole    CollaboratorRole    `gorm:"size:32;not null" json:"collaboratorRole"`
	CollaboratorDetails CollaboratorDetails `gorm:"embedded;embeddedPrefix:collaborator_" json:"collaboratorDetails"`

	Region         string     `gorm:"size:120" json:"region,omitempty"`
	PhoneNumber    string     `gorm:"size:40" json:"phoneNumber,omitempty"`
	ProfilePicture string     `gorm:"size:512" json:"profilePicture,omitempty"`
	BannerImage    string     `gorm:"size:512" json:"bannerImage,omitempty"`
	LastLogin      *time.Time `json:"lastLogin,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsApprovedArtisan() bool {
	return u.Role == RoleArtisan && u.IsApproved
}

func (u *User) IsApprovedCollaborator(role CollaboratorRole) bool {
	return u.Role == RoleCollaborator && u.CollaboratorRole == role && u.CollaboratorDetails.IsApproved
}
