package service

import (
	"brimasouk/internal/apperror"
	"brimasouk/internal/config"
	"brimasouk/internal/dto"
	"brimasouk/internal/model"
	"brimasouk/internal/notify"
	"brimasouk/internal/repository"
)

func (s *ServiceSuite) TestSignupThenSignin() {
	signup, err := s.users.Signup(s.ctx, dto.SignupRequest{
		FullName: "Yasmine",
		Email:    "Yasmine@Example.com",
		Password: "Str0ng!pass",
	})
	s.Require().NoError(err)
	s.NotEmpty(signup.Token)
	s.Equal("yasmine@example.com", signup.User.Email)
	s.Equal(model.RoleUser, signup.User.Role)

	signin, err := s.users.Signin(s.ctx, dto.SigninRequest{Email: "yasmine@example.com", Password: "Str0ng!pass"})
	s.Require().NoError(err)
	s.Equal(signup.User.ID, signin.User.ID)
	s.NotNil(signin.User.LastLogin)

	actor, err := s.users.Authenticate(s.ctx, signin.Token)
	s.Require().NoError(err)
	s.Equal(signup.User.ID, actor.ID)
	s.Equal(model.RoleUser, actor.Role)
}

func (s *ServiceSuite) TestSignupRejectsDuplicateEmail() {
	req := dto.SignupRequest{FullName: "Sami", Email: "sami@example.com", Password: "Str0ng!pass"}
	_, err := s.users.Signup(s.ctx, req)
	s.Require().NoError(err)

	req.Email = "SAMI@example.com"
	_, err = s.users.Signup(s.ctx, req)
	s.True(apperror.Is(err, apperror.KindConflict))
}

func (s *ServiceSuite) TestSignupRejectsWeakPassword() {
	_, err := s.users.Signup(s.ctx, dto.SignupRequest{FullName: "Weak", Email: "weak@example.com", Password: "password"})
	s.True(apperror.Is(err, apperror.KindValidation))
}

func (s *ServiceSuite) TestSigninWrongPassword() {
	_, err := s.users.Signup(s.ctx, dto.SignupRequest{FullName: "Nour", Email: "nour@example.com", Password: "Str0ng!pass"})
	s.Require().NoError(err)

	_, err = s.users.Signin(s.ctx, dto.SigninRequest{Email: "nour@example.com", Password: "Wr0ng!pass"})
	s.True(apperror.Is(err, apperror.KindUnauthenticated))

	_, err = s.users.Signin(s.ctx, dto.SigninRequest{Email: "ghost@example.com", Password: "Str0ng!pass"})
	s.True(apperror.Is(err, apperror.KindUnauthenticated))
}

func (s *ServiceSuite) TestAdminLoginRequiresAdmin() {
	_, err := s.users.Signup(s.ctx, dto.SignupRequest{FullName: "Customer", Email: "customer@example.com", Password: "Str0ng!pass"})
	s.Require().NoError(err)

	_, err = s.users.AdminLogin(s.ctx, dto.SigninRequest{Email: "customer@example.com", Password: "Str0ng!pass"})
	s.True(apperror.Is(err, apperror.KindUnauthenticated))

	s.Require().NoError(s.users.SeedAdmin(s.ctx, config.Admin{Email: "root@example.com", Password: "Adm1n!pass", FullName: "Root"}))
	resp, err := s.users.AdminLogin(s.ctx, dto.SigninRequest{Email: "root@example.com", Password: "Adm1n!pass"})
	s.Require().NoError(err)
	s.Equal(model.RoleAdmin, resp.User.Role)
}

func (s *ServiceSuite) TestAuthenticateRejectsGarbageToken() {
	_, err := s.users.Authenticate(s.ctx, "not.a.token")
	s.True(apperror.Is(err, apperror.KindUnauthenticated))
}

func (s *ServiceSuite) TestAuthenticateSeesRoleChanges() {
	signup, err := s.users.Signup(s.ctx, dto.SignupRequest{FullName: "Karim", Email: "karim@example.com", Password: "Str0ng!pass"})
	s.Require().NoError(err)
	actor, err := s.users.Authenticate(s.ctx, signup.Token)
	s.Require().NoError(err)

	_, err = s.users.ApplyArtisan(s.ctx, actor, dto.ApplyArtisanRequest{Region: "Nabeul", PhoneNumber: "+216 22 000 000"})
	s.Require().NoError(err)

	actor, err = s.users.Authenticate(s.ctx, signup.Token)
	s.Require().NoError(err)
	s.Equal(model.RoleArtisan, actor.Role)
}

func (s *ServiceSuite) TestChangePassword() {
	signup, err := s.users.Signup(s.ctx, dto.SignupRequest{FullName: "Lina", Email: "lina@example.com", Password: "Str0ng!pass"})
	s.Require().NoError(err)
	actor, err := s.users.Authenticate(s.ctx, signup.Token)
	s.Require().NoError(err)

	err = s.users.ChangePassword(s.ctx, actor, dto.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "N3w!passw"})
	s.True(apperror.Is(err, apperror.KindValidation))

	s.Require().NoError(s.users.ChangePassword(s.ctx, actor, dto.ChangePasswordRequest{CurrentPassword: "Str0ng!pass", NewPassword: "N3w!passw"}))

	_, err = s.users.Signin(s.ctx, dto.SigninRequest{Email: "lina@example.com", Password: "N3w!passw"})
	s.NoError(err)
}

func (s *ServiceSuite) TestArtisanApplicationLifecycle() {
	customer := s.createUser(model.RoleUser, false)

	user, err := s.users.ApplyArtisan(s.ctx, customer, dto.ApplyArtisanRequest{
		Region:      "Sfax",
		PhoneNumber: "+216 23 000 000",
		Description: "Olive wood carving",
	})
	s.Require().NoError(err)
	s.Equal(model.RoleArtisan, user.Role)
	s.False(user.IsApproved)

	_, err = s.users.ApplyArtisan(s.ctx, customer, dto.ApplyArtisanRequest{Region: "Sfax", PhoneNumber: "1"})
	s.True(apperror.Is(err, apperror.KindConflict))

	pending, total, err := s.admin.ListPendingArtisans(s.ctx, repository.Page{})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal(customer.ID, pending[0].ID)

	_, err = s.users.GetArtisan(s.ctx, customer.ID)
	s.True(apperror.Is(err, apperror.KindNotFound))

	approved, err := s.admin.ApproveArtisan(s.ctx, s.adminActor, customer.ID)
	s.Require().NoError(err)
	s.True(approved.IsApproved)
	s.Equal(s.adminActor.ID, approved.ArtisanDetails.ApprovedBy)
	s.Contains(s.notifier.kinds(), notify.ArtisanReviewed)

	artisans, total, err := s.users.ListArtisans(s.ctx, "Sfax", repository.Page{})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal(customer.ID, artisans[0].ID)

	artisans, _, err = s.users.ListArtisans(s.ctx, "Tozeur", repository.Page{})
	s.Require().NoError(err)
	s.Empty(artisans)
}

func (s *ServiceSuite) TestRejectArtisanRevertsToCustomer() {
	customer := s.createUser(model.RoleUser, false)
	_, err := s.users.ApplyArtisan(s.ctx, customer, dto.ApplyArtisanRequest{Region: "Gabes", PhoneNumber: "+216 24 000 000"})
	s.Require().NoError(err)

	_, err = s.admin.RejectArtisan(s.ctx, s.adminActor, customer.ID, " ")
	s.True(apperror.Is(err, apperror.KindValidation))

	user, err := s.admin.RejectArtisan(s.ctx, s.adminActor, customer.ID, "Portfolio missing")
	s.Require().NoError(err)
	s.Equal(model.RoleUser, user.Role)
	s.Equal("Portfolio missing", user.ArtisanDetails.RejectionReason)
}

func (s *ServiceSuite) TestCollaboratorApplicationLifecycle() {
	customer := s.createUser(model.RoleUser, false)

	_, err := s.users.ApplyCollaborator(s.ctx, customer, dto.ApplyCollaboratorRequest{CollaboratorRole: "astronaut"})
	s.True(apperror.Is(err, apperror.KindValidation))

	user, err := s.users.ApplyCollaborator(s.ctx, customer, dto.ApplyCollaboratorRequest{
		CollaboratorRole: model.CollaboratorMarketer,
		Skills:           []string{"social media"},
	})
	s.Require().NoError(err)
	s.Equal(model.RoleCollaborator, user.Role)
	s.False(user.CollaboratorDetails.IsApproved)

	_, err = s.users.ApplyCollaborator(s.ctx, customer, dto.ApplyCollaboratorRequest{CollaboratorRole: model.CollaboratorDesigner})
	s.True(apperror.Is(err, apperror.KindConflict))

	_, err = s.admin.ApproveCollaborator(s.ctx, s.adminActor, customer.ID)
	s.Require().NoError(err)

	listed, total, err := s.users.ListCollaborators(s.ctx, model.CollaboratorMarketer, repository.Page{})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal([]string{"social media"}, listed[0].CollaboratorDetails.Skills)

	_, err = s.admin.ApproveCollaborator(s.ctx, s.adminActor, customer.ID)
	s.True(apperror.Is(err, apperror.KindConflict))
}

func (s *ServiceSuite) TestRejectCollaboratorAllowsReapplying() {
	customer := s.createUser(model.RoleUser, false)
	_, err := s.users.ApplyCollaborator(s.ctx, customer, dto.ApplyCollaboratorRequest{CollaboratorRole: model.CollaboratorDesigner})
	s.Require().NoError(err)

	user, err := s.admin.RejectCollaborator(s.ctx, s.adminActor, customer.ID, "Not a fit")
	s.Require().NoError(err)
	s.Equal(model.RoleUser, user.Role)
	s.Equal(model.CollaboratorNone, user.CollaboratorRole)

	_, err = s.users.ApplyCollaborator(s.ctx, customer, dto.ApplyCollaboratorRequest{CollaboratorRole: model.CollaboratorTechnicalExpert})
	s.NoError(err)
}

func (s *ServiceSuite) TestUpdateProfile() {
	customer := s.createUser(model.RoleUser, false)
	name, region := "  Hedi  ", "Bizerte"

	user, err := s.users.UpdateProfile(s.ctx, customer, dto.UpdateProfileRequest{FullName: &name, Region: &region})
	s.Require().NoError(err)
	s.Equal("Hedi", user.FullName)

	stored, err := s.users.GetProfile(s.ctx, customer)
	s.Require().NoError(err)
	s.Equal("Bizerte", stored.Region)
}
