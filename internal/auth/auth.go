package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sl "ecom_stationery/internal/lib/logger"
	"ecom_stationery/internal/lib/password"
	"ecom_stationery/internal/models"
	"ecom_stationery/internal/notify"
	"ecom_stationery/internal/otp"
	"ecom_stationery/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user with this phone number already exists")
	ErrEmailExists        = errors.New("user with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
	ErrSignupExpired      = errors.New("signup session expired")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrUnavailable        = errors.New("service unavailable")
)

type UserSaver interface {
	SaveUser(ctx context.Context, u models.User) (int64, error)
	UpdatePassword(ctx context.Context, userID int64, passHash string) error
	SaveSession(ctx context.Context, userID int64, token string, expiresAt time.Time) (models.Session, error)
}

type UserProvider interface {
	UserByIdentifier(ctx context.Context, identifier string) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
	Session(ctx context.Context, token string) (models.Session, error)
}

type KeyValueStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) (bool, error)
}

type Publisher interface {
	SendMessage(ctx context.Context, msg models.OTPMessage) error
}

type Options struct {
	SessionTTL       time.Duration
	LegacySessionTTL time.Duration
	SignupPayloadTTL time.Duration
	// ExposeCode echoes issued codes back to the caller. Development only.
	ExposeCode bool
	Now        func() time.Time
}

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	kv          KeyValueStore
	otps        *otp.Manager
	publisher   Publisher
	hasher      *password.Hasher
	opts        Options
}

// Result is what a successful login or signup hands back to the client.
type Result struct {
	SessionToken string
	User         models.PublicUser
}

type SignupRequest struct {
	FullName    string
	PhoneNumber string
	Email       *string
	Password    string
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	kv KeyValueStore,
	otps *otp.Manager,
	publisher Publisher,
	hasher *password.Hasher,
	opts Options,
) *Auth {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		kv:          kv,
		otps:        otps,
		publisher:   publisher,
		hasher:      hasher,
		opts:        opts,
	}
}

func signupDataKey(phone string) string {
	return "signup_data:" + phone
}

func legacySessionKey(token string) string {
	return "session:" + token
}

// SendOTP issues a generic code for phone.
func (a *Auth) SendOTP(ctx context.Context, phone string) (string, error) {
	const op = "auth.SendOTP"

	log := a.log.With(slog.String("op", op))

	code, err := a.issue(ctx, otp.PurposeGeneric, phone)
	if err != nil {
		log.Error("failed to issue otp", sl.Err(err))
		return "", storeErr(op, err)
	}

	log.Info("otp sent")

	return a.exposed(code), nil
}

// VerifyOTP consumes a generic code and opens a short-lived session kept in
// the ephemeral store only.
func (a *Auth) VerifyOTP(ctx context.Context, phone, code string) (string, error) {
	const op = "auth.VerifyOTP"

	log := a.log.With(slog.String("op", op))

	ok, err := a.otps.Verify(ctx, otp.PurposeGeneric, phone, code)
	if err != nil {
		log.Error("failed to verify otp", sl.Err(err))
		return "", storeErr(op, err)
	}

	if !ok {
		log.Info("invalid otp")
		return "", ErrInvalidOTP
	}

	token := uuid.NewString()

	if err := a.kv.Set(ctx, legacySessionKey(token), phone, a.opts.LegacySessionTTL); err != nil {
		log.Error("failed to store session", sl.Err(err))
		return "", storeErr(op, err)
	}

	log.Info("otp verified")

	return token, nil
}

// LegacySession returns the phone behind a token minted by VerifyOTP.
func (a *Auth) LegacySession(ctx context.Context, token string) (string, error) {
	const op = "auth.LegacySession"

	phone, err := a.kv.Get(ctx, legacySessionKey(token))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return "", ErrInvalidSession
		}

		return "", storeErr(op, err)
	}

	return phone, nil
}

// RequestSignup stages the registration and sends a code to the phone.
func (a *Auth) RequestSignup(ctx context.Context, req SignupRequest) (string, error) {
	const op = "auth.RequestSignup"

	log := a.log.With(slog.String("op", op))

	if err := a.ensureAbsent(ctx, req.PhoneNumber, ErrUserExists); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if req.Email != nil {
		if err := a.ensureAbsent(ctx, *req.Email, ErrEmailExists); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	payload, err := json.Marshal(models.SignupPayload{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Password:    req.Password,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	// the payload and its code expire independently: a missing payload is
	// reported as ErrSignupExpired, a missing code as ErrInvalidOTP
	if err := a.kv.Set(ctx, signupDataKey(req.PhoneNumber), string(payload), a.opts.SignupPayloadTTL); err != nil {
		log.Error("failed to stage signup", sl.Err(err))
		return "", storeErr(op, err)
	}

	code, err := a.issue(ctx, otp.PurposeSignup, req.PhoneNumber)
	if err != nil {
		log.Error("failed to issue otp", sl.Err(err))
		return "", storeErr(op, err)
	}

	log.Info("signup otp sent")

	return a.exposed(code), nil
}

// ConfirmSignup creates the staged user once the code matches.
func (a *Auth) ConfirmSignup(ctx context.Context, phone, code string) (Result, error) {
	const op = "auth.ConfirmSignup"

	log := a.log.With(slog.String("op", op))

	ok, err := a.otps.Match(ctx, otp.PurposeSignup, phone, code)
	if err != nil {
		log.Error("failed to check otp", sl.Err(err))
		return Result{}, storeErr(op, err)
	}

	if !ok {
		log.Info("invalid otp")
		return Result{}, ErrInvalidOTP
	}

	raw, err := a.kv.Get(ctx, signupDataKey(phone))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			log.Info("signup payload expired")
			return Result{}, ErrSignupExpired
		}

		log.Error("failed to load signup payload", sl.Err(err))
		return Result{}, storeErr(op, err)
	}

	var payload models.SignupPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		log.Error("corrupt signup payload", sl.Err(err))
		return Result{}, ErrSignupExpired
	}

	if err := a.consume(ctx, otp.PurposeSignup, phone, code); err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := a.hasher.Hash(payload.Password)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		FullName:     payload.FullName,
		PhoneNumber:  payload.PhoneNumber,
		Email:        payload.Email,
		PasswordHash: passHash,
		IsVerified:   true,
	}

	user.ID, err = a.usrSaver.SaveUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return Result{}, fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		if errors.Is(err, storage.ErrEmailExists) {
			log.Warn("email already in use")
			return Result{}, fmt.Errorf("%s: %w", op, ErrEmailExists)
		}

		log.Error("failed to save user", sl.Err(err))
		return Result{}, storeErr(op, err)
	}

	token, err := a.openSession(ctx, user.ID)
	if err != nil {
		log.Error("failed to create session", sl.Err(err))
		return Result{}, storeErr(op, err)
	}

	if _, err := a.kv.Delete(ctx, signupDataKey(phone)); err != nil {
		log.Warn("failed to drop signup payload", sl.Err(err))
	}

	log.Info("user registered", slog.Int64("uid", user.ID))

	return Result{SessionToken: token, User: user.Public()}, nil
}

// Login checks a password against the user found by phone or email.
func (a *Auth) Login(ctx context.Context, identifier, pass string) (Result, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.user(ctx, identifier)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	if !password.Verify(pass, user.PasswordHash) {
		log.Info("invalid credentials", slog.Int64("uid", user.ID))
		return Result{}, ErrInvalidCredentials
	}

	if a.hasher.NeedsRehash(user.PasswordHash) {
		a.rehash(ctx, log, user.ID, pass)
	}

	token, err := a.openSession(ctx, user.ID)
	if err != nil {
		log.Error("failed to create session", sl.Err(err))
		return Result{}, storeErr(op, err)
	}

	log.Info("user logged in successfully", slog.Int64("uid", user.ID))

	return Result{SessionToken: token, User: user.Public()}, nil
}

func (a *Auth) SendLoginOTP(ctx context.Context, identifier string) (string, error) {
	const op = "auth.SendLoginOTP"

	return a.sendForExisting(ctx, op, otp.PurposeLogin, identifier)
}

func (a *Auth) VerifyLoginOTP(ctx context.Context, identifier, code string) (Result, error) {
	const op = "auth.VerifyLoginOTP"

	log := a.log.With(slog.String("op", op))

	user, err := a.checkCodeForUser(ctx, otp.PurposeLogin, identifier, code)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	token, err := a.openSession(ctx, user.ID)
	if err != nil {
		log.Error("failed to create session", sl.Err(err))
		return Result{}, storeErr(op, err)
	}

	log.Info("user logged in with otp", slog.Int64("uid", user.ID))

	return Result{SessionToken: token, User: user.Public()}, nil
}

func (a *Auth) ForgotPassword(ctx context.Context, identifier string) (string, error) {
	const op = "auth.ForgotPassword"

	return a.sendForExisting(ctx, op, otp.PurposeReset, identifier)
}

// ResetPassword replaces the password once the reset code matches. It does
// not log the user in.
func (a *Auth) ResetPassword(ctx context.Context, identifier, code, newPassword string) error {
	const op = "auth.ResetPassword"

	log := a.log.With(slog.String("op", op))

	user, err := a.checkCodeForUser(ctx, otp.PurposeReset, identifier, code)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := a.hasher.Hash(newPassword)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.usrSaver.UpdatePassword(ctx, user.ID, passHash); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrUserNotFound
		}

		log.Error("failed to update password", sl.Err(err))
		return storeErr(op, err)
	}

	log.Info("password reset", slog.Int64("uid", user.ID))

	return nil
}

// SessionUser resolves a durable session token. Expired rows are treated as
// absent even while they remain stored.
func (a *Auth) SessionUser(ctx context.Context, token string) (models.PublicUser, error) {
	const op = "auth.SessionUser"

	s, err := a.usrProvider.Session(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return models.PublicUser{}, ErrInvalidSession
		}

		return models.PublicUser{}, storeErr(op, err)
	}

	if s.IsExpired(a.opts.Now()) {
		return models.PublicUser{}, ErrInvalidSession
	}

	user, err := a.usrProvider.UserByID(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.PublicUser{}, ErrInvalidSession
		}

		return models.PublicUser{}, storeErr(op, err)
	}

	return user.Public(), nil
}

func (a *Auth) sendForExisting(ctx context.Context, op string, purpose otp.Purpose, identifier string) (string, error) {
	log := a.log.With(slog.String("op", op))

	if _, err := a.user(ctx, identifier); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	code, err := a.issue(ctx, purpose, identifier)
	if err != nil {
		log.Error("failed to issue otp", sl.Err(err))
		return "", storeErr(op, err)
	}

	log.Info("otp sent", slog.String("purpose", string(purpose)))

	return a.exposed(code), nil
}

// checkCodeForUser matches the code, loads the user and only then consumes
// the code, so a failed lookup leaves it usable.
func (a *Auth) checkCodeForUser(ctx context.Context, purpose otp.Purpose, identifier, code string) (models.User, error) {
	ok, err := a.otps.Match(ctx, purpose, identifier, code)
	if err != nil {
		a.log.Error("failed to check otp", sl.Err(err))
		return models.User{}, unavailable(err)
	}

	if !ok {
		return models.User{}, ErrInvalidOTP
	}

	user, err := a.user(ctx, identifier)
	if err != nil {
		return models.User{}, err
	}

	if err := a.consume(ctx, purpose, identifier, code); err != nil {
		return models.User{}, err
	}

	return user, nil
}

// consume removes a matched code. Losing a race to a concurrent caller is a
// failed verification.
func (a *Auth) consume(ctx context.Context, purpose otp.Purpose, identifier, code string) error {
	ok, err := a.otps.Verify(ctx, purpose, identifier, code)
	if err != nil {
		a.log.Error("failed to consume otp", sl.Err(err))
		return unavailable(err)
	}

	if !ok {
		return ErrInvalidOTP
	}

	return nil
}

func (a *Auth) issue(ctx context.Context, purpose otp.Purpose, identifier string) (string, error) {
	code, err := a.otps.Issue(ctx, purpose, identifier)
	if err != nil {
		return "", err
	}

	msg := models.OTPMessage{
		To:      identifier,
		Channel: notify.ChannelFor(identifier),
		Code:    code,
		Purpose: string(purpose),
	}

	if err := a.publisher.SendMessage(ctx, msg); err != nil {
		return "", fmt.Errorf("failed to deliver otp: %w", err)
	}

	return code, nil
}

func (a *Auth) user(ctx context.Context, identifier string) (models.User, error) {
	user, err := a.usrProvider.UserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}

		a.log.Error("failed to get user", sl.Err(err))
		return models.User{}, unavailable(err)
	}

	return user, nil
}

func (a *Auth) ensureAbsent(ctx context.Context, identifier string, exists error) error {
	_, err := a.usrProvider.UserByIdentifier(ctx, identifier)
	switch {
	case err == nil:
		return exists
	case errors.Is(err, storage.ErrUserNotFound):
		return nil
	default:
		a.log.Error("failed to get user", sl.Err(err))
		return unavailable(err)
	}
}

func (a *Auth) openSession(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()

	if _, err := a.usrSaver.SaveSession(ctx, userID, token, a.opts.Now().Add(a.opts.SessionTTL)); err != nil {
		return "", err
	}

	return token, nil
}

func (a *Auth) rehash(ctx context.Context, log *slog.Logger, userID int64, pass string) {
	passHash, err := a.hasher.Hash(pass)
	if err == nil {
		err = a.usrSaver.UpdatePassword(ctx, userID, passHash)
	}

	if err != nil {
		log.Warn("failed to upgrade password hash", sl.Err(err))
		return
	}

	log.Info("password hash upgraded", slog.Int64("uid", userID))
}

func (a *Auth) exposed(code string) string {
	if a.opts.ExposeCode {
		return code
	}

	return ""
}

func unavailable(err error) error {
	if errors.Is(err, storage.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return err
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, unavailable(err))
}
