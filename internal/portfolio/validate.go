package portfolio

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Draft 是后台写入作品集时提交的字段。
type Draft struct {
	Slug           string
	StudentName    string
	Theme          string
	SkillLayout    string
	AccessPassword string
}

// Validate 校验后台提交的作品集字段。
func (d Draft) Validate() error {
	themes := make([]any, 0, len(Themes()))
	for _, t := range Themes() {
		themes = append(themes, string(t))
	}
	return validation.ValidateStruct(&d,
		validation.Field(&d.Slug, validation.Required, validation.Length(2, 128), validation.Match(slugPattern)),
		validation.Field(&d.StudentName, validation.Required, validation.Length(1, 128)),
		validation.Field(&d.Theme, validation.In(themes...)),
		validation.Field(&d.SkillLayout, validation.In(string(LayoutBar), string(LayoutRadar), string(LayoutCircle), string(LayoutStatGrid))),
		validation.Field(&d.AccessPassword, validation.Length(0, 128)),
	)
}
