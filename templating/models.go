package templating

type LandingModel struct {
	Date    string
	FileUrl string
}
