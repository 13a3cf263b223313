package bitrix

// Deal — сделка CRM. Классический REST Bitrix24 отдаёт все значения строками.
type Deal struct {
	ID           string `json:"ID"`
	Title        string `json:"TITLE"`
	CategoryID   string `json:"CATEGORY_ID"`
	StageID      string `json:"STAGE_ID"`
	AssignedByID string `json:"ASSIGNED_BY_ID"`
	DateCreate   string `json:"DATE_CREATE"`
	DateModify   string `json:"DATE_MODIFY"`
	TelegramID   string `json:"UF_CRM_DEAL_TELEGRAM_ID"`
}

// UploadedFile — файл, загруженный на диск Bitrix24
type UploadedFile struct {
	ID          string
	DownloadURL string
}

type dealGetResponse struct {
	Result Deal `json:"result"`
}

type dealListResponse struct {
	Result []Deal `json:"result"`
	Total  *int   `json:"total,omitempty"`
	Next   *int   `json:"next,omitempty"`
}

type addResponse struct {
	Result any `json:"result"`
}

type uploadURLResponse struct {
	Result struct {
		UploadURL string `json:"uploadUrl"`
	} `json:"result"`
}

type uploadFileResponse struct {
	Result struct {
		ID          any    `json:"ID"`
		DownloadURL string `json:"DOWNLOAD_URL"`
	} `json:"result"`
}
