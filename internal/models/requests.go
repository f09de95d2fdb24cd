package models

// OTPPurpose tells the backend which flow a one-time code belongs to.
type OTPPurpose int

const (
	OTPSignup        OTPPurpose = 0
	OTPResetPassword OTPPurpose = 1
)

// LoginRequest is the body of POST /Auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /Auth/register.
type RegisterRequest struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	PhoneNumber     string `json:"phoneNumber" validate:"required,phone"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// SendOTPRequest is the body of POST /Auth/verifyOTP, which dispatches a code by email.
type SendOTPRequest struct {
	Email   string     `json:"email" validate:"required,email"`
	Purpose OTPPurpose `json:"purpose"`
}

// VerifyOTPRequest is the body of POST /Auth/verify-otp.
type VerifyOTPRequest struct {
	Email   string     `json:"email" validate:"required,email"`
	OTPCode string     `json:"OTPCode" validate:"required"`
	Purpose OTPPurpose `json:"purpose"`
}

// ForgotPasswordRequest is the body of POST /Auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the body of POST /Auth/reset-password.
type ResetPasswordRequest struct {
	Email              string `json:"email" validate:"required,email"`
	OTPCode            string `json:"otpCode" validate:"required"`
	NewPassword        string `json:"newPassword" validate:"required"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required,eqfield=NewPassword"`
}

// RefreshRequest is the body of POST /Auth/refresh-token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TransformationOptions controls how the backend renders each item.
type TransformationOptions struct {
	AspectRatio       string `json:"aspectRatio"`
	AddWatermark      bool   `json:"addWatermark"`
	WatermarkContent  string `json:"watermarkContent"`
	WatermarkPosition string `json:"watermarkPosition"`
	AddCaptions       bool   `json:"addCaptions"`
}

// Aspect ratios accepted by the backend.
const (
	AspectVertical = "9:16"
	AspectOriginal = "original"
)

// DefaultTransformationOptions reframes to vertical video with no watermark or captions.
func DefaultTransformationOptions() TransformationOptions {
	return TransformationOptions{AspectRatio: AspectVertical}
}

// TransformationRequest is the body of POST /MediaTransformation.
type TransformationRequest struct {
	MediaSources    []MediaSource         `json:"mediaSources"`
	TargetPlatforms []Platform            `json:"targetPlatforms"`
	Options         TransformationOptions `json:"options"`
}

// TransformationResponse is the answer to a job submission.
type TransformationResponse struct {
	JobID ID `json:"jobId"`
}

// TikTokUploadRequest is the body of POST /TikTok/upload.
type TikTokUploadRequest struct {
	UserID ID            `json:"userId"`
	Media  []TikTokMedia `json:"media"`
}

type TikTokMedia struct {
	ID  ID     `json:"id"`
	URL string `json:"url"`
}

// YouTubeUploadRequest is the body of POST /Youtube/upload-videos.
type YouTubeUploadRequest struct {
	ChannelID string         `json:"channelId"`
	UserID    ID             `json:"userId"`
	Videos    []YouTubeVideo `json:"videos"`
}

type YouTubeVideo struct {
	FilePath    string `json:"filePath"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
