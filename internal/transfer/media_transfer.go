package transfer

type MediaDownloadRequest struct {
	URL       string `json:"url"`
	Caption   string `json:"caption"`
	AccountID string `json:"account_id"`
}
