package content

import (
	"encoding/json"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gorm.io/datatypes"

	"kidsfolio/internal/database"
)

// Entry 是对外返回的内容条目。
type Entry struct {
	ID        uint            `json:"id"`
	Title     string          `json:"title"`
	Subtitle  string          `json:"subtitle,omitempty"`
	Body      string          `json:"body,omitempty"`
	ImageURL  string          `json:"image_url,omitempty"`
	LinkURL   string          `json:"link_url,omitempty"`
	Tags      []string        `json:"tags"`
	Extra     json.RawMessage `json:"extra,omitempty"`
	SortOrder int             `json:"sort_order"`
	Published bool            `json:"published"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FromRow 转换数据库行；tags 列损坏时按无标签处理。
func FromRow(row database.ContentRow) Entry {
	var tags []string
	if len(row.Tags) > 0 {
		_ = json.Unmarshal(row.Tags, &tags)
	}
	if tags == nil {
		tags = []string{}
	}
	var extra json.RawMessage
	if len(row.Extra) > 0 && string(row.Extra) != "null" {
		extra = json.RawMessage(row.Extra)
	}
	return Entry{
		ID:        row.ID,
		Title:     row.Title,
		Subtitle:  row.Subtitle,
		Body:      row.Body,
		ImageURL:  row.ImageURL,
		LinkURL:   row.LinkURL,
		Tags:      tags,
		Extra:     extra,
		SortOrder: row.SortOrder,
		Published: row.Published,
		UpdatedAt: row.UpdatedAt,
	}
}

// HasTag 不区分大小写比较标签。
func (e Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(strings.TrimSpace(t), tag) {
			return true
		}
	}
	return false
}

// Draft 是后台提交的条目内容。
type Draft struct {
	Title     string          `json:"title"`
	Subtitle  string          `json:"subtitle"`
	Body      string          `json:"body"`
	ImageURL  string          `json:"image_url"`
	LinkURL   string          `json:"link_url"`
	Tags      []string        `json:"tags"`
	Extra     json.RawMessage `json:"extra"`
	SortOrder int             `json:"sort_order"`
	Published bool            `json:"published"`
}

func (d Draft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&d.Subtitle, validation.Length(0, 255)),
		validation.Field(&d.ImageURL, validation.Length(0, 512), is.URL),
		validation.Field(&d.LinkURL, validation.Length(0, 512), is.URL),
		validation.Field(&d.Tags, validation.Each(validation.Required, validation.Length(1, 32))),
		validation.Field(&d.Extra, validation.By(jsonObject)),
	)
}

// ToRow 生成待写入的数据库行，标签去除首尾空白。
func (d Draft) ToRow() database.ContentRow {
	tags := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		tags = append(tags, strings.TrimSpace(t))
	}
	tagJSON, _ := json.Marshal(tags)

	row := database.ContentRow{
		Title:     strings.TrimSpace(d.Title),
		Subtitle:  d.Subtitle,
		Body:      d.Body,
		ImageURL:  d.ImageURL,
		LinkURL:   d.LinkURL,
		Tags:      datatypes.JSON(tagJSON),
		SortOrder: d.SortOrder,
		Published: d.Published,
	}
	if len(d.Extra) > 0 {
		row.Extra = datatypes.JSON(d.Extra)
	}
	return row
}

func jsonObject(value any) error {
	raw, _ := value.(json.RawMessage)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return validation.NewError("validation_json_object", "must be a JSON object")
	}
	return nil
}
