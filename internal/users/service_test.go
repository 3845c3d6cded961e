package users

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubRoles struct {
	conn *gorm.DB
}

func (s stubRoles) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := s.conn.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

type sentMail struct {
	tpl mailer.Template
	to  string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, tpl mailer.Template, to string, _ mailer.Data) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{tpl: tpl, to: to})
	return n.err
}

type fixture struct {
	conn   *gorm.DB
	repo   *Repository
	svc    Service
	mail   *recordingNotifier
	buyer  models.Role
	seller models.Role
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:users_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(models.All()...))

	buyer := models.Role{Name: enums.RoleBuyer, DisplayName: "Buyer"}
	seller := models.Role{Name: enums.RoleSeller, DisplayName: "Seller"}
	require.NoError(t, conn.Create(&buyer).Error)
	require.NoError(t, conn.Create(&seller).Error)

	repo := NewRepository(conn)
	mail := &recordingNotifier{}
	svc, err := NewService(ServiceParams{Repo: repo, Roles: stubRoles{conn: conn}, Mailer: mail, Logger: logger.Nop()})
	require.NoError(t, err)
	return &fixture{conn: conn, repo: repo, svc: svc, mail: mail, buyer: buyer, seller: seller}
}

func (f *fixture) createUser(t *testing.T, email, phone string, roleID uuid.UUID) *models.User {
	t.Helper()
	u, err := f.repo.Create(context.Background(), CreateUserDTO{
		FirstName: "Test", LastName: "User", Email: email, PasswordHash: "hash", PhoneNumber: phone, RoleID: roleID,
	})
	require.NoError(t, err)
	return u
}

func TestCreateDefaultsAndDTO(t *testing.T) {
	f := newFixture(t)
	u := f.createUser(t, "a@example.com", "+15550001", f.buyer.ID)
	require.Equal(t, enums.GenderNotSpecified, u.Gender)
	require.Equal(t, enums.UserStatusActive, u.Status)

	dto := FromModel(u)
	require.Equal(t, enums.RoleBuyer, dto.Role)
	require.False(t, dto.Verified)
}

func TestListAndListByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "b1@example.com", "+15550001", f.buyer.ID)
	f.createUser(t, "b2@example.com", "+15550002", f.buyer.ID)
	f.createUser(t, "s1@example.com", "+15550003", f.seller.ID)

	all, err := f.svc.List(ctx, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, all.TotalUsers)
	require.Equal(t, 2, all.TotalPages)
	require.Len(t, all.Users, 2)

	sellers, err := f.svc.ListByRole(ctx, "Seller", pagination.Params{})
	require.NoError(t, err)
	require.EqualValues(t, 1, sellers.TotalUsers)
	require.Equal(t, "s1@example.com", sellers.Users[0].Email)

	_, err = f.svc.ListByRole(ctx, "ghost", pagination.Params{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestChangeRoleAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "c@example.com", "+15550001", f.buyer.ID)

	dto, err := f.svc.ChangeRole(ctx, u.ID, ChangeRoleInput{Role: "seller"})
	require.NoError(t, err)
	require.Equal(t, enums.RoleSeller, dto.Role)

	_, err = f.svc.UpdateStatus(ctx, u.ID, UpdateStatusInput{Status: "frozen"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	dto, err = f.svc.UpdateStatus(ctx, u.ID, UpdateStatusInput{Status: "inactive"})
	require.NoError(t, err)
	require.Equal(t, enums.UserStatusInactive, dto.Status)

	// unchanged status sends nothing
	_, err = f.svc.UpdateStatus(ctx, u.ID, UpdateStatusInput{Status: "inactive"})
	require.NoError(t, err)

	f.mail.err = errors.New("smtp down")
	dto, err = f.svc.UpdateStatus(ctx, u.ID, UpdateStatusInput{Status: "active"})
	require.NoError(t, err)
	require.Equal(t, enums.UserStatusActive, dto.Status)

	require.Equal(t, []sentMail{
		{tpl: mailer.TemplateAccountBlocked, to: "c@example.com"},
		{tpl: mailer.TemplateAccountUnblocked, to: "c@example.com"},
	}, f.mail.sent)

	_, err = f.svc.UpdateStatus(ctx, uuid.New(), UpdateStatusInput{Status: "active"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.createUser(t, "d@example.com", "+15550001", f.buyer.ID)
	f.createUser(t, "e@example.com", "+15550002", f.buyer.ID)

	first, gender, photo := "Dana", "female", "https://cdn.example.com/d.png"
	dto, err := f.svc.UpdateProfile(ctx, u.ID, UpdateProfileInput{FirstName: &first, Gender: &gender, PhotoURL: &photo})
	require.NoError(t, err)
	require.Equal(t, "Dana", dto.FirstName)
	require.Equal(t, enums.GenderFemale, dto.Gender)
	require.Equal(t, photo, *dto.PhotoURL)

	taken := "+15550002"
	_, err = f.svc.UpdateProfile(ctx, u.ID, UpdateProfileInput{PhoneNumber: &taken})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	own := "+15550001"
	_, err = f.svc.UpdateProfile(ctx, u.ID, UpdateProfileInput{PhoneNumber: &own})
	require.NoError(t, err)

	bad := "robot"
	_, err = f.svc.UpdateProfile(ctx, u.ID, UpdateProfileInput{Gender: &bad})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.createUser(t, "admin@example.com", "+15550000", f.seller.ID)
	u := f.createUser(t, "f@example.com", "+15550001", f.buyer.ID)

	cart := models.Cart{UserID: u.ID}
	require.NoError(t, f.conn.Create(&cart).Error)
	require.NoError(t, f.conn.Create(&models.CartItem{CartID: cart.ID, ProductID: uuid.New(), Size: "M", Quantity: 1}).Error)

	err := f.svc.Delete(ctx, admin.ID, admin.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got %v", err)

	require.NoError(t, f.svc.Delete(ctx, admin.ID, u.ID))
	var items int64
	require.NoError(t, f.conn.Model(&models.CartItem{}).Count(&items).Error)
	require.Zero(t, items)

	err = f.svc.Delete(ctx, admin.ID, u.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
	_, err = f.svc.Get(ctx, u.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}
