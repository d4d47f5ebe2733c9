package grocery

import (
	"context"

	"go.uber.org/zap"

	"grocery-engine/internal/infrastructure/metrics"
	"grocery-engine/internal/pkg/common"
)

// PreferenceStore 使用者分類偏好儲存介面
type PreferenceStore interface {
	Get(ctx context.Context, userID, key string) (Category, bool, error)
	Set(ctx context.Context, userID, key string, tag Category) error
	All(ctx context.Context, userID string) (map[string]Category, error)
}

// CategoryResolver 將名稱解析為分類
type CategoryResolver interface {
	Classify(name, hint, brand string) Category
}

// Classification 分類結果及其來源
type Classification struct {
	Category       Category `json:"category"`
	NormalizedKey  string   `json:"normalizedKey"`
	Rule           string   `json:"rule"`
	FromPreference bool     `json:"fromPreference"`
}

const (
	ruleEmpty      = "empty"
	ruleDefault    = "default"
	rulePreference = "preference"
)

// Classifier 分類器：偏好優先，其次依序評估規則
type Classifier struct {
	rules []Rule
	prefs PreferenceStore
}

// NewClassifier 創建分類器，prefs 可為 nil
func NewClassifier(prefs PreferenceStore) *Classifier {
	return &Classifier{rules: defaultRules, prefs: prefs}
}

// WithRules 使用自訂規則（測試單一規則用）
func (c *Classifier) WithRules(rules []Rule) *Classifier {
	return &Classifier{rules: rules, prefs: c.prefs}
}

// Classify 僅依規則分類
func (c *Classifier) Classify(name, hint, brand string) Category {
	return c.Explain(name, hint, brand).Category
}

// Explain 分類並返回命中的規則名稱
func (c *Classifier) Explain(name, hint, brand string) Classification {
	key := Normalize(name)
	if key == "" {
		return c.record(Classification{Category: CategoryOther, Rule: ruleEmpty})
	}
	subject := newSubject(name, hint, brand)
	for _, rule := range c.rules {
		if rule.Match(subject) {
			return c.record(Classification{Category: rule.Tag, NormalizedKey: key, Rule: rule.Name})
		}
	}
	return c.record(Classification{Category: CategoryOther, NormalizedKey: key, Rule: ruleDefault})
}

func (c *Classifier) record(result Classification) Classification {
	metrics.Classifications.WithLabelValues(result.Rule).Inc()
	return result
}

// ClassifyFor 先查詢使用者偏好，再執行規則
func (c *Classifier) ClassifyFor(ctx context.Context, userID, name, hint, brand string) Classification {
	key := Normalize(name)
	if key != "" && userID != "" && c.prefs != nil {
		tag, ok, err := c.prefs.Get(ctx, userID, key)
		if err != nil {
			common.LogWarn("Preference lookup failed, falling back to rules",
				zap.String("user_id", userID),
				zap.String("key", key),
				zap.Error(err),
			)
		} else if ok && tag.Valid() {
			return c.record(Classification{Category: tag, NormalizedKey: key, Rule: rulePreference, FromPreference: true})
		}
	}
	return c.Explain(name, hint, brand)
}

// ForUser 一次載入使用者全部偏好，返回同步的分類器
// 讀取失敗時退回純規則分類
func (c *Classifier) ForUser(ctx context.Context, userID string) CategoryResolver {
	uc := &userClassifier{base: c}
	if userID == "" || c.prefs == nil {
		return uc
	}
	prefs, err := c.prefs.All(ctx, userID)
	if err != nil {
		common.LogWarn("Failed to load category preferences",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return uc
	}
	uc.prefs = prefs
	return uc
}

// userClassifier 單一使用者偏好快照
type userClassifier struct {
	base  *Classifier
	prefs map[string]Category
}

func (u *userClassifier) Classify(name, hint, brand string) Category {
	if tag, ok := u.prefs[Normalize(name)]; ok && tag.Valid() {
		u.base.record(Classification{Category: tag, Rule: rulePreference, FromPreference: true})
		return tag
	}
	return u.base.Classify(name, hint, brand)
}
