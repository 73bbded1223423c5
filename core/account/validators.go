package account

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/edunet/core"
)

var (
	mismatchTag  = "eqfield"
	mismatchText = "{0} does not match"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to your name or email"
)

// InitValidators registers the account validations on v.
func InitValidators(v *core.Validator) {
	v.RegisterStructValidation(accountStructValidation, SignUp{}, PasswordChange{})
	v.RegisterTranslation(mismatchTag, mismatchText, true)
	v.RegisterTranslation(pwdMinLenTag, pwdMinLenText)
	v.RegisterTranslation(pwdNoSpaceTag, pwdNoSpaceText)
	v.RegisterTranslation(pwdNotAllNumTag, pwdNotAllNumText)
	v.RegisterTranslation(pwdAttrSimTag, pwdAttrSimText)
}

func accountStructValidation(sl validator.StructLevel) {
	switch form := sl.Current().Interface().(type) {
	case SignUp:
		validatePassword(form.Password, "password", form.Name, form.Email, sl)
	case PasswordChange:
		if form.NewPassword != "" {
			validatePassword(form.NewPassword, "newPassword", form.name, form.email, sl)
		}
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - no user attrs similarity
func validatePassword(pwd, field, name, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, field, field, tag, "")
	}

	pwdLen := len([]rune(pwd))
	if pwdLen < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	var digitCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == pwdLen {
		reportErr(pwdNotAllNumTag)
		return
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		pass, usrAttr = strings.ToLower(pass), strings.ToLower(usrAttr)
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	localPart := strings.SplitN(email, "@", 2)[0]
	if getRatio(pwd, name) >= pwdMaxSim ||
		getRatio(pwd, email) >= pwdMaxSim ||
		getRatio(pwd, localPart) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
	}
}
