package dto

type PredictRequest struct {
	Filename string `json:"filename" binding:"required"`
	BS64     string `json:"bs64" binding:"required"`
}

type PredictResponse struct {
	Result   string `json:"result"`
	Filename string `json:"filename"`
}

type LabelsResponse struct {
	List []string `json:"list"`
}

// JudgeRequest carries the judge's verdict. Label is the correct class and
// is normally only filled when Judgment is "False".
type JudgeRequest struct {
	Filename string `json:"filename" binding:"required"`
	Label    string `json:"label"`
	Judgment string `json:"judgment" binding:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
