// Package credpool 管理各提供商的轮换 API key 池及其健康状态。
// 健康状态只驻留内存；密钥本身由上层仓储负责持久化。
package credpool

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoCredentials 表示该提供商没有配置任何 API key。
var ErrNoCredentials = errors.New("no API keys configured for provider")

// ErrAllCredentialsUnhealthy 表示该提供商的 key 全部处于失败冷却中。
var ErrAllCredentialsUnhealthy = errors.New("all credentials unhealthy for provider")

// Credential 是提供商 key 池中的一个槽位。
// 健康/轮换状态由 Pool 的互斥锁守护，调用方不应直接修改。
type Credential struct {
	Provider string
	Secret   string

	healthy    bool
	failReason string
	failedAt   time.Time
}

// providerPool 是单个提供商的有序 key 集合与轮换游标。
type providerPool struct {
	creds  []*Credential
	cursor int
}

// Pool 是跨提供商的凭证池，所有方法并发安全。
type Pool struct {
	mu        sync.Mutex
	cooldown  time.Duration
	providers map[string]*providerPool
	now       func() time.Time
}

// defaultCooldown 在配置缺省或非法时兜底，避免失败的 key
// 在同一轮调用里立刻被再次选中。
const defaultCooldown = time.Minute

// NewPool 创建凭证池。cooldown 是失败 key 重新参与轮换前的冷却时长，
// 非正值按 defaultCooldown 处理。
func NewPool(cooldown time.Duration) *Pool {
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &Pool{
		cooldown:  cooldown,
		providers: make(map[string]*providerPool),
		now:       time.Now,
	}
}

// Next 按轮换顺序返回 provider 的下一把可用 key：优先健康的 key，
// 已冷却完毕的失败 key 重新参与轮换。池为空返回 ErrNoCredentials，
// 全部处于冷却中返回 ErrAllCredentialsUnhealthy。
func (p *Pool) Next(provider string) (*Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pp, ok := p.providers[provider]
	if !ok || len(pp.creds) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCredentials, provider)
	}

	n := len(pp.creds)
	for i := 0; i < n; i++ {
		idx := (pp.cursor + i) % n
		c := pp.creds[idx]
		if c.healthy || p.now().Sub(c.failedAt) >= p.cooldown {
			pp.cursor = (idx + 1) % n
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAllCredentialsUnhealthy, provider)
}

// MarkFailed 将凭证标记为不健康并记录原因，冷却期内不再被 Next 选中。
func (p *Pool) MarkFailed(cred *Credential, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cred.healthy = false
	cred.failReason = reason
	cred.failedAt = p.now()
}

// MarkHealthy 将凭证恢复为健康状态。
func (p *Pool) MarkHealthy(cred *Credential) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cred.healthy = true
	cred.failReason = ""
}

// Count 返回 provider 的 key 数量。
func (p *Pool) Count(provider string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	pp, ok := p.providers[provider]
	if !ok {
		return 0
	}
	return len(pp.creds)
}

// Counts 返回每个提供商的 key 数量。读接口永远只暴露数量，不暴露密钥。
func (p *Pool) Counts() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	counts := make(map[string]int, len(p.providers))
	for name, pp := range p.providers {
		counts[name] = len(pp.creds)
	}
	return counts
}

// FirstSecret 返回 provider 的第一把 key（用于 embedding 调用）。
func (p *Pool) FirstSecret(provider string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pp, ok := p.providers[provider]
	if !ok || len(pp.creds) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoCredentials, provider)
	}
	return pp.creds[0].Secret, nil
}

// SetProvider 以增量合并的方式添加 key：已存在的密钥保持原状态，
// 新密钥追加到池尾。
func (p *Pool) SetProvider(provider string, secrets []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pp, ok := p.providers[provider]
	if !ok {
		pp = &providerPool{}
		p.providers[provider] = pp
	}
	existing := make(map[string]struct{}, len(pp.creds))
	for _, c := range pp.creds {
		existing[c.Secret] = struct{}{}
	}
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		if _, dup := existing[secret]; dup {
			continue
		}
		existing[secret] = struct{}{}
		pp.creds = append(pp.creds, &Credential{
			Provider: provider,
			Secret:   secret,
			healthy:  true,
		})
	}
}

// ReplaceProvider 整体换掉 provider 的 key 池（批量换钥）。
func (p *Pool) ReplaceProvider(provider string, secrets []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pp := &providerPool{}
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		pp.creds = append(pp.creds, &Credential{
			Provider: provider,
			Secret:   secret,
			healthy:  true,
		})
	}
	if len(pp.creds) == 0 {
		delete(p.providers, provider)
		return
	}
	p.providers[provider] = pp
}

// RemoveProvider 原子地移除 provider 的整个 key 池。
func (p *Pool) RemoveProvider(provider string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.providers, provider)
}

// RemoveAll 清空所有提供商的 key。
func (p *Pool) RemoveAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.providers = make(map[string]*providerPool)
}

// Snapshot 导出每个提供商的密钥列表，供仓储层持久化。
func (p *Pool) Snapshot() map[string][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string][]string, len(p.providers))
	for name, pp := range p.providers {
		secrets := make([]string, 0, len(pp.creds))
		for _, c := range pp.creds {
			secrets = append(secrets, c.Secret)
		}
		out[name] = secrets
	}
	return out
}
