package translate

import (
	"fmt"

	"kidsfolio/internal/portfolio"
)

// document 是发送给翻译模型的载荷，只包含文本字段；
// 内容块按原顺序一一对应，并携带 id 用于校验返回结构。
type document struct {
	StudentName  string     `json:"student_name"`
	StudentTitle string     `json:"student_title"`
	SummaryBio   string     `json:"summary_bio"`
	Skills       []skillDoc `json:"skills"`
	Blocks       []blockDoc `json:"blocks"`
}

type skillDoc struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

type blockDoc struct {
	ID            string `json:"id"`
	Title         string `json:"title,omitempty"`
	Date          string `json:"date,omitempty"`
	Content       string `json:"content,omitempty"`
	StarSituation string `json:"star_situation,omitempty"`
	StarTask      string `json:"star_task,omitempty"`
	StarAction    string `json:"star_action,omitempty"`
	StarResult    string `json:"star_result,omitempty"`
}

func extract(v portfolio.View) document {
	doc := document{
		StudentName:  v.StudentName,
		StudentTitle: v.StudentTitle,
		SummaryBio:   v.SummaryBio,
		Skills:       make([]skillDoc, 0, len(v.Skills)),
		Blocks:       make([]blockDoc, 0, len(v.Blocks)),
	}
	for _, c := range v.Skills {
		names := make([]string, 0, len(c.Items))
		for _, item := range c.Items {
			names = append(names, item.Name)
		}
		doc.Skills = append(doc.Skills, skillDoc{Name: c.Name, Items: names})
	}
	for _, b := range v.Blocks {
		doc.Blocks = append(doc.Blocks, extractBlock(b))
	}
	return doc
}

func extractBlock(b portfolio.Block) blockDoc {
	d := blockDoc{ID: b.BlockID()}
	switch v := b.(type) {
	case portfolio.TimelineNode:
		d.Date, d.Title, d.Content = v.Date, v.Title, v.Content
	case portfolio.TextBlock:
		d.Title, d.Content = v.Title, v.Content
	case portfolio.ImageGrid:
		d.Title, d.Content = v.Title, v.Caption
	case portfolio.VideoBlock:
		d.Title, d.Content = v.Title, v.Caption
	case portfolio.SectionHeading:
		d.Title = v.Title
	case portfolio.ProjectHighlight:
		d.Title, d.Date = v.Title, v.Date
		d.StarSituation = v.STAR.Situation
		d.StarTask = v.STAR.Task
		d.StarAction = v.STAR.Action
		d.StarResult = v.STAR.Result
	}
	return d
}

// apply 把译文写入源视图的副本。结构（分组数、技能数、块数、块 id）必须与源一致，
// 否则视为返回格式错误；源视图不会被修改。
func apply(src portfolio.View, doc document) (portfolio.View, error) {
	if len(doc.Skills) != len(src.Skills) {
		return portfolio.View{}, fmt.Errorf("%w: skill category count %d, want %d", ErrMalformed, len(doc.Skills), len(src.Skills))
	}
	if len(doc.Blocks) != len(src.Blocks) {
		return portfolio.View{}, fmt.Errorf("%w: block count %d, want %d", ErrMalformed, len(doc.Blocks), len(src.Blocks))
	}

	out := src.Clone()
	out.StudentName = pick(src.StudentName, doc.StudentName)
	out.StudentTitle = pick(src.StudentTitle, doc.StudentTitle)
	out.SummaryBio = pick(src.SummaryBio, doc.SummaryBio)

	for i, c := range doc.Skills {
		if len(c.Items) != len(src.Skills[i].Items) {
			return portfolio.View{}, fmt.Errorf("%w: skill category %d item count %d, want %d", ErrMalformed, i, len(c.Items), len(src.Skills[i].Items))
		}
		out.Skills[i].Name = pick(src.Skills[i].Name, c.Name)
		for j, name := range c.Items {
			out.Skills[i].Items[j].Name = pick(src.Skills[i].Items[j].Name, name)
		}
	}

	for i, d := range doc.Blocks {
		if d.ID != src.Blocks[i].BlockID() {
			return portfolio.View{}, fmt.Errorf("%w: block %d id %q, want %q", ErrMalformed, i, d.ID, src.Blocks[i].BlockID())
		}
		out.Blocks[i] = applyBlock(out.Blocks[i], d)
	}
	return out, nil
}

func applyBlock(b portfolio.Block, d blockDoc) portfolio.Block {
	switch v := b.(type) {
	case portfolio.TimelineNode:
		v.Date, v.Title, v.Content = pick(v.Date, d.Date), pick(v.Title, d.Title), pick(v.Content, d.Content)
		return v
	case portfolio.TextBlock:
		v.Title, v.Content = pick(v.Title, d.Title), pick(v.Content, d.Content)
		return v
	case portfolio.ImageGrid:
		v.Title, v.Caption = pick(v.Title, d.Title), pick(v.Caption, d.Content)
		return v
	case portfolio.VideoBlock:
		v.Title, v.Caption = pick(v.Title, d.Title), pick(v.Caption, d.Content)
		return v
	case portfolio.SectionHeading:
		v.Title = pick(v.Title, d.Title)
		return v
	case portfolio.ProjectHighlight:
		v.Title, v.Date = pick(v.Title, d.Title), pick(v.Date, d.Date)
		v.STAR.Situation = pick(v.STAR.Situation, d.StarSituation)
		v.STAR.Task = pick(v.STAR.Task, d.StarTask)
		v.STAR.Action = pick(v.STAR.Action, d.StarAction)
		v.STAR.Result = pick(v.STAR.Result, d.StarResult)
		return v
	default:
		return b
	}
}

// pick 只在源字段非空且译文非空时采用译文，模型不能凭空添加或清空字段。
func pick(source, translated string) string {
	if source == "" || translated == "" {
		return source
	}
	return translated
}
