package transform

// Captions shown by the presentation layer.
const (
	CaptionOpen     = "张开手：吉祥如意"
	CaptionFist     = "握紧拳：岁岁平安"
	BlessingBanner  = "马到成功"
	FestiveSubtitle = "新春快乐 · 万事大吉"
)

// Caption returns the instruction line for the current gesture signal.
func Caption(g GestureState) string {
	if g == GestureOpen {
		return CaptionOpen
	}
	return CaptionFist
}

// Banner returns the blessing shown above the scene, or "" while dormant.
func Banner(s State) string {
	if s == Transformed {
		return BlessingBanner
	}
	return ""
}
