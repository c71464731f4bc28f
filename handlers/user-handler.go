package handlers

import (
	"net/http"

	"task-management/backend/apperrors"
	"task-management/backend/logging"
	"task-management/backend/models"
	"task-management/backend/services"
	"task-management/backend/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserHandler struct {
	service   *services.UserService
	uploadDir string
}

func NewUserHandler(service *services.UserService, uploadDir string) *UserHandler {
	return &UserHandler{service: service, uploadDir: uploadDir}
}

const maxUploadSize = 10 << 20 // 10 MB

// CreateUser accepts a multipart form with the user fields plus an optional
// avatar image. The image is attached after the core user write succeeds;
// an upload failure never fails the creation.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, apperrors.Validationf("invalid multipart form"))
		return
	}

	input := services.CreateUserInput{
		Name:       r.FormValue("name"),
		Email:      r.FormValue("email"),
		UserID:     r.FormValue("userid"),
		Password:   r.FormValue("password"),
		Role:       r.FormValue("role"),
		Department: r.FormValue("department"),
		Phone:      r.FormValue("phone"),
	}

	user, err := h.service.CreateUser(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	if updated := h.attachImage(r, user.ID); updated != nil {
		user = updated
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.Validationf("invalid user ID format"))
		return
	}
	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.Validationf("invalid user ID format"))
		return
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, apperrors.Validationf("invalid multipart form"))
		return
	}

	patch := services.UserPatch{}
	formField := func(name string) *string {
		if values, ok := r.MultipartForm.Value[name]; ok && len(values) > 0 {
			return &values[0]
		}
		return nil
	}
	patch.Name = formField("name")
	patch.Email = formField("email")
	patch.UserID = formField("userid")
	patch.Role = formField("role")
	patch.Department = formField("department")
	patch.Phone = formField("phone")
	patch.Password = formField("password")

	user, err := h.service.UpdateUser(r.Context(), userID, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	if updated := h.attachImage(r, user.ID); updated != nil {
		user = updated
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, apperrors.Validationf("invalid user ID format"))
		return
	}
	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// attachImage stores an uploaded avatar, if any, and patches it onto the
// user. Returns the refreshed user or nil when there was nothing to attach.
func (h *UserHandler) attachImage(r *http.Request, userID primitive.ObjectID) *models.User {
	file, header, err := r.FormFile("image")
	if err != nil {
		return nil // no image in the form
	}
	defer file.Close()

	name, err := utils.SaveAvatar(h.uploadDir, file, header)
	if err != nil {
		logging.Logger.Warnf("Event ID: AVATAR_STORE_FAILED, Description: Could not store avatar for user %s: %v", userID.Hex(), err)
		return nil
	}

	user, err := h.service.UpdateUser(r.Context(), userID, services.UserPatch{Image: &name})
	if err != nil {
		logging.Logger.Warnf("Event ID: AVATAR_ATTACH_FAILED, Description: Could not attach avatar to user %s: %v", userID.Hex(), err)
		return nil
	}
	return user
}
