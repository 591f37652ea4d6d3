package model

// Classification 过滤步骤给出的粗粒度标签
type Classification string

const (
	ClassificationPositive    Classification = "positive"
	ClassificationNeutral     Classification = "neutral"
	ClassificationNegative    Classification = "negative"
	ClassificationUnknown     Classification = "unknown"
	ClassificationSpam        Classification = "spam"
	ClassificationPromotional Classification = "promotional"
	ClassificationNeedsReview Classification = "needs_review"
	ClassificationError       Classification = "error"
)

// SentimentLabels 默认的情感标签集合
var SentimentLabels = []Classification{
	ClassificationPositive,
	ClassificationNeutral,
	ClassificationNegative,
}

// ParseClassification 解析标签，未知值返回 false
func ParseClassification(s string) (Classification, bool) {
	switch c := Classification(s); c {
	case ClassificationPositive, ClassificationNeutral, ClassificationNegative,
		ClassificationUnknown, ClassificationSpam, ClassificationPromotional,
		ClassificationNeedsReview, ClassificationError:
		return c, true
	}
	return "", false
}

// Skipped spam 和 promotional 不进入后续步骤
func (c Classification) Skipped() bool {
	return c == ClassificationSpam || c == ClassificationPromotional
}

func (c Classification) String() string { return string(c) }
