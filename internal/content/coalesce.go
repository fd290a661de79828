package content

// 字段级兜底组合子：实时值“缺省”时取兜底值。
// 标量以零值（含空字符串）为缺省；集合以长度为 0 为缺省（空集合同样被兜底替换）。

// Coalesce 返回 live，除非它是零值。
func Coalesce[T comparable](live, fb T) T {
	var zero T
	if live == zero {
		return fb
	}
	return live
}

// CoalesceSlice 返回 live，除非它为空。
func CoalesceSlice[T any](live, fb []T) []T {
	if len(live) == 0 {
		return fb
	}
	return live
}

// CoalesceMap 返回 live，除非它为空。
func CoalesceMap[K comparable, V any](live, fb map[K]V) map[K]V {
	if len(live) == 0 {
		return fb
	}
	return live
}

// CoalescePtr 返回 live，除非它为 nil。
func CoalescePtr[T any](live, fb *T) *T {
	if live == nil {
		return fb
	}
	return live
}
