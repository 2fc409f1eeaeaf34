package handlers

import (
	"farmfresh/internal/log"
	"farmfresh/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	FarmName string `json:"farmName"`
	Location string `json:"location"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, badRequest("auth.register", "Invalid request body"))
	}
	u, tok, err := h.Auth.Register(c.UserContext(), services.Registration{
		Name: req.Name, Email: req.Email, Password: req.Password, UserType: req.UserType,
		Phone: req.Phone, Address: req.Address, FarmName: req.FarmName, Location: req.Location,
	})
	if err != nil {
		return fail(c, err)
	}
	c.Status(fiber.StatusCreated)
	log.Audit(c, "auth.register", map[string]any{"user_id": u.ID, "user_type": u.Role})
	return render(c, fiber.StatusCreated, "Registration successful", fiber.Map{"token": tok, "user": u}, nil)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, badRequest("auth.login", "Invalid request body"))
	}
	u, tok, err := h.Auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": req.Email})
		return fail(c, err)
	}
	log.Audit(c, "auth.login.success", map[string]any{"user_id": u.ID})
	return render(c, fiber.StatusOK, "", fiber.Map{"token": tok, "user": u}, nil)
}

func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	u, err := h.Auth.Profile(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return render(c, fiber.StatusOK, "", u, nil)
}

type profileReq struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	FarmName *string `json:"farmName"`
	Location *string `json:"location"`
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var req profileReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, badRequest("auth.profile", "Invalid request body"))
	}
	u, err := h.Auth.UpdateProfile(c.UserContext(), principal(c), services.ProfilePatch{
		Name: req.Name, Phone: req.Phone, Address: req.Address, FarmName: req.FarmName, Location: req.Location,
	})
	if err != nil {
		return fail(c, err)
	}
	log.Audit(c, "auth.profile.update", nil)
	return render(c, fiber.StatusOK, "Profile updated successfully", u, nil)
}
