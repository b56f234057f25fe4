package domain

import dErrors "heirloom/pkg/domain-errors"

// RelationshipKind describes how a nominee relates to the account owner.
type RelationshipKind string

const (
	RelationshipFamily              RelationshipKind = "Family"
	RelationshipLegalRepresentative RelationshipKind = "Legal Representative"
	RelationshipFriend              RelationshipKind = "Friend"
	RelationshipOther               RelationshipKind = "Other"
)

// validRelationshipKinds is the single source of truth for supported values.
var validRelationshipKinds = map[RelationshipKind]bool{
	RelationshipFamily:              true,
	RelationshipLegalRepresentative: true,
	RelationshipFriend:              true,
	RelationshipOther:               true,
}

// ParseRelationshipKind constructs a RelationshipKind from external input.
func ParseRelationshipKind(s string) (RelationshipKind, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "relationship cannot be empty")
	}
	k := RelationshipKind(s)
	if !validRelationshipKinds[k] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid relationship kind")
	}
	return k, nil
}

func (k RelationshipKind) String() string { return string(k) }
