package models

import "fmt"

// Field bounds, in characters.
const (
	PasswordMinLen    = 6
	DisplayNameMinLen = 6
	DisplayNameMaxLen = 12

	TitleMinLen    = 1
	TitleMaxLen    = 60
	BodyMinLen     = 10
	BodyMaxLen     = 10000
	CategoryMaxLen = 40
	ImageRefMaxLen = 2048

	CommentMinLen = 1
	CommentMaxLen = 500
)

// Rule sets keyed by Go field name, registered with the validator for the
// matching input type.
var (
	SignupRules = map[string]string{
		"Email":       "required,email",
		"Password":    fmt.Sprintf("required,min=%d", PasswordMinLen),
		"DisplayName": fmt.Sprintf("required,min=%d,max=%d", DisplayNameMinLen, DisplayNameMaxLen),
	}

	PostInputRules = map[string]string{
		"Title":     fmt.Sprintf("required,min=%d,max=%d", TitleMinLen, TitleMaxLen),
		"Category":  fmt.Sprintf("max=%d", CategoryMaxLen),
		"Body":      fmt.Sprintf("required,min=%d,max=%d", BodyMinLen, BodyMaxLen),
		"MainImage": fmt.Sprintf("max=%d", ImageRefMaxLen),
		"Thumbnail": fmt.Sprintf("max=%d", ImageRefMaxLen),
	}

	PostPatchRules = map[string]string{
		"Title":     fmt.Sprintf("omitnil,min=%d,max=%d", TitleMinLen, TitleMaxLen),
		"Category":  fmt.Sprintf("omitnil,min=1,max=%d", CategoryMaxLen),
		"Body":      fmt.Sprintf("omitnil,min=%d,max=%d", BodyMinLen, BodyMaxLen),
		"MainImage": fmt.Sprintf("omitnil,max=%d", ImageRefMaxLen),
		"Thumbnail": fmt.Sprintf("omitnil,max=%d", ImageRefMaxLen),
	}

	CommentRules = map[string]string{
		"Comment": fmt.Sprintf("required,min=%d,max=%d", CommentMinLen, CommentMaxLen),
	}
)
