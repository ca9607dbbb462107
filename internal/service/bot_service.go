package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"govchat-server/internal/config"
)

// 外部生成服务不可用时返回的固定回复
const (
	// ReplyUpstreamIssue 外部服务返回非 200 或响应格式不正确
	ReplyUpstreamIssue = "Sorry, there was an issue retrieving information. Please try again later."
	// ReplyUpstreamUnavailable 网络错误或请求超时
	ReplyUpstreamUnavailable = "Sorry, I'm currently unable to fetch a response. Please try again later."
)

// 外部服务响应体的最大读取字节数
const maxUpstreamBody = 1 << 20

// CannedPhrases 离线模式下的固定话术，顺序固定
var CannedPhrases = [...]string{
	"Thank you for your question. I'm here to help you with government services.",
	"That's a great question about our services. Let me provide you with some information.",
	"I understand your concern. Here's what you need to know about this topic.",
	"Based on your query, I can direct you to the right department for more assistance.",
	"The information you're looking for can be found on our official website. Would you like me to provide a direct link?",
	"I'm processing your request. This might take a moment.",
	"For security reasons, please do not share any personal identification details in this chat.",
	"To better assist you, could you please provide more specific details about your query?",
	"This information is handled by a different department. I'm directing your query to the appropriate channel.",
}

// Responder 根据用户消息生成机器人回复
// 实现不返回错误，外部故障会降级为固定回复
type Responder interface {
	Respond(ctx context.Context, message string) string
}

// NewResponder 根据配置创建回复器
// 每个部署只启用一种模式
func NewResponder(cfg config.BotConfig, log *zap.Logger) (Responder, error) {
	switch cfg.Mode {
	case config.BotModeCanned:
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return NewCannedResponder(rand.NewSource(seed)), nil
	case config.BotModeForward:
		return NewForwardingResponder(cfg, log), nil
	default:
		return nil, fmt.Errorf("unsupported bot mode %q", cfg.Mode)
	}
}

// ==================== 离线模式 ====================

// CannedResponder 从固定话术中均匀随机选择一条
// 随机源由外部注入，测试时可使用固定种子
type CannedResponder struct {
	mu  sync.Mutex // rand.Rand 不是并发安全的
	rnd *rand.Rand
}

// NewCannedResponder 创建 CannedResponder 实例
func NewCannedResponder(src rand.Source) *CannedResponder {
	return &CannedResponder{rnd: rand.New(src)}
}

// Respond 返回一条随机话术，忽略消息内容
func (r *CannedResponder) Respond(_ context.Context, _ string) string {
	r.mu.Lock()
	i := r.rnd.Intn(len(CannedPhrases))
	r.mu.Unlock()
	return CannedPhrases[i]
}

// ==================== 转发模式 ====================

// ForwardingResponder 将用户消息转发到外部文本生成服务
type ForwardingResponder struct {
	endpoint      string
	requestField  string // 请求体字段，例如 user_query
	responseField string // 响应体字段，例如 generated_text
	client        *http.Client
	log           *zap.Logger
}

// NewForwardingResponder 创建 ForwardingResponder 实例
func NewForwardingResponder(cfg config.BotConfig, log *zap.Logger) *ForwardingResponder {
	requestField := cfg.RequestField
	if requestField == "" {
		requestField = "user_query"
	}
	responseField := cfg.ResponseField
	if responseField == "" {
		responseField = "generated_text"
	}

	return &ForwardingResponder{
		endpoint:      cfg.Endpoint,
		requestField:  requestField,
		responseField: responseField,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

// Respond 调用外部服务生成回复
// HTTP 200 且包含回复字段时返回生成文本；非 200 或格式错误返回 ReplyUpstreamIssue；
// 网络错误或超时返回 ReplyUpstreamUnavailable
func (r *ForwardingResponder) Respond(ctx context.Context, message string) string {
	reply, err := r.generate(ctx, message)
	if err == nil {
		return reply
	}

	var statusErr *upstreamStatusError
	if errors.As(err, &statusErr) || errors.Is(err, errMalformedUpstream) {
		r.log.Warn("bot upstream returned unusable response", zap.Error(err))
		return ReplyUpstreamIssue
	}
	r.log.Warn("bot upstream unreachable", zap.Error(err))
	return ReplyUpstreamUnavailable
}

var errMalformedUpstream = errors.New("malformed upstream response")

type upstreamStatusError struct {
	status int
}

func (e *upstreamStatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.status)
}

func (r *ForwardingResponder) generate(ctx context.Context, message string) (string, error) {
	payload, err := json.Marshal(map[string]string{r.requestField: message})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call upstream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 读完响应体以便复用连接
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxUpstreamBody))
		return "", &upstreamStatusError{status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return "", fmt.Errorf("read upstream body: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", fmt.Errorf("%w: %v", errMalformedUpstream, err)
	}
	raw, ok := fields[r.responseField]
	if !ok {
		return "", fmt.Errorf("%w: missing field %q", errMalformedUpstream, r.responseField)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", fmt.Errorf("%w: field %q is not a string", errMalformedUpstream, r.responseField)
	}
	return text, nil
}
