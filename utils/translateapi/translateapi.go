package translateapi

import (
	"errors"
	"log"

	"content_trans_api/config"

	"github.com/alibabacloud-go/tea/tea"

	alimt20181012 "github.com/alibabacloud-go/alimt-20181012/v2/client"
	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
)

var TranslateClient *alimt20181012.Client

func init() {
	clientConfig := &openapi.Config{
		AccessKeyId:     &config.Cfg.Aliyun.AccessKeyId,
		AccessKeySecret: &config.Cfg.Aliyun.AccessKeySecret,
	}

	var err error
	clientConfig.Endpoint = tea.String("mt.aliyuncs.com")
	TranslateClient, err = alimt20181012.NewClient(clientConfig)

	if err != nil {
		log.Fatal("init aliyun translate error.")
	}
}

// Translate runs one machine translation call. On failure the source
// text comes back unchanged together with the error.
func Translate(from string, to string, text string) (string, error) {
	translateGeneralRequest := &alimt20181012.TranslateGeneralRequest{
		FormatType:     tea.String("text"),
		SourceLanguage: tea.String(from),
		TargetLanguage: tea.String(to),
		SourceText:     tea.String(text),
		Scene:          tea.String("general"),
	}
	runtime := &util.RuntimeOptions{}
	result, err := TranslateClient.TranslateGeneralWithOptions(translateGeneralRequest, runtime)
	if err != nil {
		return text, err
	}

	if *result.Body.Code == 200 {
		return *result.Body.Data.Translated, nil
	}

	return text, errors.New(*result.Body.Message)
}

// Detect guesses the language of a text sample. Used to sanity check the
// declared source language before pretranslating.
func Detect(text string) (string, error) {
	getDetectLanguageRequest := &alimt20181012.GetDetectLanguageRequest{
		SourceText: tea.String(text),
	}

	runtime := &util.RuntimeOptions{}
	result, err := TranslateClient.GetDetectLanguageWithOptions(getDetectLanguageRequest, runtime)
	if err != nil {
		return "", err
	}

	if *result.StatusCode == 200 {
		return *result.Body.DetectedLanguage, nil
	}

	return "", nil
}
