package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lumenshop/storefront/internal/logger"
	"github.com/lumenshop/storefront/internal/models"
	"github.com/lumenshop/storefront/internal/repository"
)

// Session 单个身份的会话状态：资料、购物车与心愿单的内存副本。
// 同一身份在进程内只有一个 Session，购物车变更在 mu 上串行执行。
type Session struct {
	mu       sync.Mutex
	uid      string
	profile  *models.Profile
	cart     []models.CartLine
	wishlist []models.WishlistItem
	closed   bool
	lastUsed time.Time

	// 镜像写入按序号串行，只写最新状态
	mirrorMu         sync.Mutex
	cartSeq          uint64
	cartMirrored     uint64
	wishlistSeq      uint64
	wishlistMirrored uint64
}

// NewAnonymousSession 创建未登录会话
func NewAnonymousSession() *Session {
	return &Session{}
}

func newSession(profile *models.Profile, now time.Time) *Session {
	return &Session{
		uid:      profile.UID,
		profile:  profile,
		cart:     models.CloneLines(profile.Cart),
		wishlist: append([]models.WishlistItem{}, profile.Wishlist...),
		lastUsed: now,
	}
}

// UID 当前身份 ID，未登录为空
func (s *Session) UID() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ""
	}
	return s.uid
}

// Authenticated 是否已登录
func (s *Session) Authenticated() bool {
	return s.UID() != ""
}

// Role 当前角色
func (s *Session) Role() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.profile == nil {
		return ""
	}
	return s.profile.Role
}

// Profile 返回资料副本（购物车与心愿单为内存最新值）
func (s *Session) Profile() *models.Profile {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.profile == nil {
		return nil
	}
	return s.profileCopyLocked()
}

func (s *Session) profileCopyLocked() *models.Profile {
	copied := *s.profile
	copied.Addresses = append([]models.Address{}, s.profile.Addresses...)
	copied.Orders = append([]string{}, s.profile.Orders...)
	copied.Cart = models.CloneLines(s.cart)
	copied.Wishlist = append([]models.WishlistItem{}, s.wishlist...)
	return &copied
}

// replaceProfile 用远端确认后的资料刷新内存（不覆盖购物车与心愿单）
func (s *Session) replaceProfile(profile *models.Profile) {
	if s == nil || profile == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || profile.UID != s.uid {
		return
	}
	updated := *profile
	s.profile = &updated
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed)
}

// close 清空身份与全部依赖状态，不做远端删除
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.uid = ""
	s.profile = nil
	s.cart = nil
	s.wishlist = nil
}

// SessionRegistry 进程内会话表
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	profiles repository.ProfileRepository
	idleTTL  time.Duration
	timeout  time.Duration
	now      func() time.Time
}

// NewSessionRegistry 创建会话表
func NewSessionRegistry(profiles repository.ProfileRepository, idleTTL, remoteTimeout time.Duration) *SessionRegistry {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		profiles: profiles,
		idleTTL:  idleTTL,
		timeout:  remoteTimeout,
		now:      time.Now,
	}
}

// Open 获取身份会话，不存在或已过期时从资料文档加载
func (r *SessionRegistry) Open(ctx context.Context, uid string) (*Session, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, ErrNotAuthenticated
	}
	now := r.now()
	if session := r.lookup(uid, now); session != nil {
		return session, nil
	}

	readCtx, cancel := remoteReadContext(ctx, r.timeout)
	defer cancel()
	profile, err := r.profiles.Get(readCtx, uid)
	if err != nil {
		return nil, wrapRemoteError(ctx, "load_profile", err)
	}
	if profile == nil {
		return nil, ErrProfileMissing
	}
	return r.Attach(profile), nil
}

// Attach 以资料文档建立会话；已有活跃会话时直接复用
func (r *SessionRegistry) Attach(profile *models.Profile) *Session {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[profile.UID]; ok && existing.Authenticated() && existing.idleSince(now) <= r.idleTTL {
		existing.touch(now)
		return existing
	}
	session := newSession(profile, now)
	r.sessions[profile.UID] = session
	return session
}

// Drop 关闭并移除会话
func (r *SessionRegistry) Drop(uid string) {
	r.mu.Lock()
	session, ok := r.sessions[uid]
	delete(r.sessions, uid)
	r.mu.Unlock()
	if ok {
		session.close()
	}
}

// Sweep 清理空闲过期的会话，返回清理数量
func (r *SessionRegistry) Sweep() int {
	now := r.now()
	r.mu.Lock()
	expired := make([]*Session, 0)
	for uid, session := range r.sessions {
		if session.idleSince(now) > r.idleTTL || !session.Authenticated() {
			expired = append(expired, session)
			delete(r.sessions, uid)
		}
	}
	r.mu.Unlock()
	for _, session := range expired {
		session.close()
	}
	if len(expired) > 0 {
		logger.Debugw("session_sweep", "expired", len(expired))
	}
	return len(expired)
}

// Len 当前会话数量
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *SessionRegistry) lookup(uid string, now time.Time) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[uid]
	if !ok {
		return nil
	}
	if !session.Authenticated() || session.idleSince(now) > r.idleTTL {
		delete(r.sessions, uid)
		session.close()
		return nil
	}
	session.touch(now)
	return session
}
